package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/accounts/internal/accounts/clients"
	httpapi "github.com/aussiebroadwan/accounts/internal/accounts/http"
	"github.com/aussiebroadwan/accounts/internal/accounts/journey"
	"github.com/aussiebroadwan/accounts/internal/accounts/keys"
	"github.com/aussiebroadwan/accounts/internal/accounts/metrics"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/redis"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application holds the accounts service and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         *sqlite.Store
	rdb        *goredis.Client
	nonces     store.Nonces
	keyManager *jwtx.KeyManager
	clientKeys keys.Resolver
	sealer     *cryptox.Sealer
	registry   *clients.Registry
	machine    *journey.Machine
	metrics    *metrics.Metrics

	// Services
	sessions            *service.SessionManager
	issuer              *service.StoreIssuer
	tokenService        *service.TokenService
	authorizeService    *service.AuthorizeService
	journeyService      *service.JourneyService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router

	// background work started by Run
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option tweaks an Application before it is wired.
type Option func(*Application)

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(app *Application) {
		app.logger = slogx.New(slogx.Config{
			Service: "accounts",
			Version: BuildVersion,
			Env:     app.cfg.Env,
			Level:   app.cfg.LogLevel,
			Format:  app.cfg.LogFormat,
			Output:  w,
		})
	}
}

// New creates a new Application instance with all dependencies initialized.
func New(ctx context.Context, cfg Config, opts ...Option) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "accounts",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		machine: journey.Default(),
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initNonces(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	if err := app.initKeys(); err != nil {
		app.closeStores()
		return nil, err
	}

	if err := app.initClients(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until ctx is done, a shutdown
// signal arrives or the server fails. SIGHUP reloads the client registry.
func (app *Application) Run(ctx context.Context) error {
	bg, cancel := context.WithCancel(slogx.WithContext(context.Background(), app.logger))
	app.cancel = cancel

	app.housekeepingService.Start()

	if app.cfg.ClientsWatch {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			if err := clients.Watch(bg, app.registry, app.cfg.ClientsFile, clients.DefaultDebounce); err != nil {
				app.logger.Error("client registry watcher stopped", "error", err)
			}
		}()
	}

	app.logger.Info("accounts service starting", "listen", app.cfg.Listen, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	for {
		select {
		case err := <-serverErrors:
			_ = app.Shutdown()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil

		case <-reload:
			if err := app.registry.Reload(bg); err != nil {
				app.logger.Error("client registry reload failed; keeping previous registry", "error", err)
			} else {
				app.logger.Info("client registry reloaded", "clients", app.registry.Len())
			}

		case sig := <-shutdown:
			app.logger.Info("shutdown signal received", "signal", sig)
			if err := app.Shutdown(); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil

		case <-ctx.Done():
			app.logger.Info("context cancelled, shutting down")
			if err := app.Shutdown(); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		}
	}
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down accounts service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.cancel != nil {
		app.cancel()
		app.wg.Wait()
		app.housekeepingService.Stop()
		app.cancel = nil
	}

	err := app.closeStores()
	app.logger.Info("accounts service stopped")
	return err
}

func (app *Application) closeStores() error {
	var errs []error
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initNonces picks where used assertion jtis are recorded.
func (app *Application) initNonces(ctx context.Context) error {
	if app.cfg.NonceBackend != NonceBackendRedis {
		app.nonces = app.db.Nonces()
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rdb, err := redis.Dial(dialCtx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect nonce store: %w", err)
	}
	app.rdb = rdb
	app.nonces = redis.NewNonces(rdb, redis.Options{TTL: app.cfg.NonceTTL})
	app.logger.Info("nonce store on redis", "ttl", app.cfg.NonceTTL)
	return nil
}

func (app *Application) initKeys() error {
	km, err := InitSigningKeys(app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.keyManager = km

	resolver, err := InitClientKeys(app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.clientKeys = resolver

	sealer, err := InitSealer(app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.sealer = sealer
	return nil
}

// initClients loads the registry once; a bad file at startup is fatal.
func (app *Application) initClients(ctx context.Context) error {
	src, err := clients.NewFileSource(app.cfg.ClientsFile)
	if err != nil {
		return fmt.Errorf("failed to open client registry: %w", err)
	}

	reg, err := clients.NewRegistry(slogx.WithContext(ctx, app.logger), src,
		clients.WithScopeCheck(app.machine.Has),
		clients.WithObserver(app.metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to load client registry: %w", err)
	}
	app.registry = reg
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.sessions = &service.SessionManager{
		Store:  app.db.Sessions(),
		Sealer: app.sealer,
		TTL:    app.cfg.SessionTTL,
	}

	app.issuer = &service.StoreIssuer{
		Store:      app.db,
		KeyManager: app.keyManager,
		Issuer:     app.cfg.Issuer,
		CodeTTL:    app.cfg.CodeTTL,
		AccessTTL:  app.cfg.AccessTokenTTL,
	}

	app.tokenService = &service.TokenService{
		Clients:              app.registry,
		Keys:                 app.clientKeys,
		Nonces:               app.nonces,
		Codes:                app.issuer,
		Metrics:              app.metrics,
		Algorithm:            app.cfg.AssertionAlgorithm,
		Audience:             app.cfg.TokenEndpoint(),
		Leeway:               app.cfg.AssertionLeeway,
		MaxAssertionLifetime: app.cfg.MaxAssertionLifetime,
		KeyTimeout:           app.cfg.KeyTimeout,
		NonceTimeout:         app.cfg.NonceTimeout,
		IssueTimeout:         app.cfg.IssueTimeout,
	}

	app.authorizeService = &service.AuthorizeService{
		Clients:     app.registry,
		Machine:     app.machine,
		Sessions:    app.sessions,
		Metrics:     app.metrics,
		JourneyPath: app.cfg.JourneyPath,
	}

	app.journeyService = &service.JourneyService{
		Machine:  app.machine,
		Sessions: app.sessions,
		Codes:    app.issuer,
		Metrics:  app.metrics,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.AuthorizeService = app.authorizeService
	router.JourneyService = app.journeyService
	router.Metrics = app.metrics
	router.Cookie = httpapi.CookieOptions{Secure: app.cfg.SecureCookies}
	router.Readiness = httpapi.Readiness{
		Clients: app.registry,
		Keys:    app.clientKeys,
	}
	if app.rdb != nil {
		router.Readiness.Nonces = app.nonces.(*redis.Nonces)
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
