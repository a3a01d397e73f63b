package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/metrics"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"

	_ "github.com/aussiebroadwan/accounts/api/accounts" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	TokenService     *service.TokenService
	AuthorizeService *service.AuthorizeService
	JourneyService   *service.JourneyService
	Metrics          *metrics.Metrics

	// Readiness lists the extra dependencies /readyz reports on.
	Readiness Readiness

	// Cookie controls the session cookie set by authorize.
	Cookie CookieOptions
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Cookie:       CookieOptions{Secure: true},
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/livez", "/readyz", "/metrics"),
		httpx.SecurityHeaders,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerJourneys()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Accounts Service API
//	@version		0.1.0
//	@description	Hosts account-management journeys (delete account, change email, register passkey) for relying parties.
//	@description
//	@description	A relying party sends the browser to /v1/oauth2/authorize, the user completes the journey, and the relying party exchanges the returned code for an access token using a signed client assertion (RFC 7523).
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/accounts
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// GET /authorize - keyed by IP and client so one noisy client cannot
	// starve the others behind the same proxy
	authorizeHandler := &AuthorizeHandler{
		AuthorizeService: r.AuthorizeService,
		Cookie:           r.Cookie,
	}
	r.Mux.Handle("GET /v1/oauth2/authorize",
		httpx.Chain(authorizeHandler,
			httpx.RateLimitByIPAndQuery(httpx.AuthorizeLimit, "client_id"),
		),
	)

	// POST /token - strict rate limit by IP
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.TokenLimit),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys.KeySet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.Handle("GET /error",
		httpx.Chain(ErrorPageHandler(),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerJourneys() {
	h := &JourneyHandler{JourneyService: r.JourneyService}

	r.Mux.Handle("GET /v1/journeys/{scope}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.JourneyLimit),
		),
	)
	r.Mux.Handle("POST /v1/journeys/{scope}/events",
		httpx.Chain(http.HandlerFunc(h.HandleEvent),
			httpx.RateLimitByIP(httpx.JourneyLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.Readiness))
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}
