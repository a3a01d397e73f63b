package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// EnvPrefix is prepended to every setting read from the environment, so
// --database-file is also ACCOUNTS_DATABASE_FILE.
const EnvPrefix = "ACCOUNTS"

// Nonce backends.
const (
	NonceBackendSQLite = "sqlite"
	NonceBackendRedis  = "redis"
)

type Config struct {
	Listen    string // HTTP listen address (default: :8080)
	PublicURL string // Required: externally visible base URL; the token endpoint audience is derived from it
	Issuer    string // iss of access tokens (default: PublicURL)

	Algorithm      string        // Access token signing algorithm (RS256, ES256, EdDSA) (default: ES256)
	RSABits        int           // RSA key size for RS256
	NumKeys        int           // Number of ephemeral signing keys (default: 2)
	AccessTokenTTL time.Duration // Access token lifetime (default: 5m)

	AssertionAlgorithm   string        // Only alg accepted on client assertions (default: ES256)
	AssertionLeeway      time.Duration // Clock skew tolerated on assertions (default: 30s)
	MaxAssertionLifetime time.Duration // Upper bound on exp-iat of an assertion (default: 5m)

	ClientsFile  string // Required: YAML client registry
	ClientsWatch bool   // Reload the registry when the file changes (default: true)

	KeysDir          string        // Directory of <alias>.pem client public keys
	KeysJWKSURL      string        // Remote JWKS of client keys; takes precedence over KeysDir
	KeysJWKSCacheTTL time.Duration // How long fetched client keys are trusted (default: 5m)
	KeyTimeout       time.Duration // Budget for one key lookup (default: 3s)

	DatabaseFile   string        // SQLite database path (default: accounts.db)
	SessionKeyFile string        // Session sealing key; empty generates one per process
	SessionTTL     time.Duration // Session lifetime (default: 30m)
	CodeTTL        time.Duration // Authorization code lifetime (default: 60s)
	SecureCookies  bool          // Set Secure on the session cookie (default: true)
	JourneyPath    string        // Prefix authorize appends the scope to (default: /v1/journeys/)
	IssueTimeout   time.Duration // Budget for redeeming a code and signing the token (default: 5s)

	NonceBackend string        // sqlite or redis (default: sqlite)
	RedisURL     string        // Required when NonceBackend is redis
	NonceTTL     time.Duration // Redis key TTL for recorded jtis; zero keeps them forever
	NonceTimeout time.Duration // Budget for one nonce store call (default: 2s)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 15m)
}

// TokenEndpoint is the audience client assertions must carry.
func (c Config) TokenEndpoint() string {
	return strings.TrimSuffix(c.PublicURL, "/") + "/v1/oauth2/token"
}

// RegisterFlags declares every setting on fs. Each flag can also come from
// the environment or the config file.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to YAML config file")

	fs.String("listen", ":8080", "HTTP listen address")
	fs.String("public-url", "", "externally visible base URL, e.g. https://accounts.example.com")
	fs.String("issuer", "", "access token issuer (defaults to --public-url)")

	fs.String("algorithm", jwtx.AlgorithmES256, "access token signing algorithm (RS256, ES256, EdDSA)")
	fs.Int("rsa-bits", 0, "RSA key size when --algorithm=RS256")
	fs.Int("num-keys", 2, "number of ephemeral signing keys")
	fs.Duration("access-token-ttl", jwtx.DefaultAccessTokenTTL, "access token lifetime")

	fs.String("assertion-algorithm", jwtx.AlgorithmES256, "only alg accepted on client assertions")
	fs.Duration("assertion-leeway", 30*time.Second, "clock skew tolerated on client assertions")
	fs.Duration("max-assertion-lifetime", 5*time.Minute, "maximum exp-iat of a client assertion")

	fs.String("clients-file", "", "YAML client registry")
	fs.Bool("clients-watch", true, "reload the client registry when the file changes")

	fs.String("keys-dir", "", "directory of <alias>.pem client public keys")
	fs.String("keys-jwks-url", "", "JWKS URL serving client public keys (overrides --keys-dir)")
	fs.Duration("keys-jwks-cache-ttl", 5*time.Minute, "how long fetched client keys are trusted")
	fs.Duration("key-timeout", service.DefaultKeyTimeout, "budget for one client key lookup")

	fs.String("database-file", "accounts.db", "SQLite database path")
	fs.String("session-key-file", "", "session sealing key file (empty generates one per process)")
	fs.Duration("session-ttl", service.DefaultSessionTTL, "browser session lifetime")
	fs.Duration("code-ttl", service.DefaultCodeTTL, "authorization code lifetime")
	fs.Bool("secure-cookies", true, "mark the session cookie Secure")
	fs.String("journey-path", service.DefaultJourneyPath, "path prefix authorize sends the browser to, followed by the scope")
	fs.Duration("issue-timeout", service.DefaultIssueTimeout, "budget for redeeming a code and signing the access token")

	fs.String("nonce-backend", NonceBackendSQLite, "replay nonce store (sqlite, redis)")
	fs.String("redis-url", "", "Redis URL when --nonce-backend=redis")
	fs.Duration("nonce-ttl", 0, "Redis TTL for recorded jtis (0 keeps them forever)")
	fs.Duration("nonce-timeout", service.DefaultNonceTimeout, "budget for one nonce store call")

	fs.String("env", "dev", "environment (dev, staging, prod)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "json", "log format (json, text)")
	fs.Duration("shutdown-grace-period", 10*time.Second, "graceful shutdown timeout")
	fs.Duration("housekeeping-interval", service.DefaultHousekeepingInterval, "how often expired rows are deleted")
}

// NewViper binds fs, the ACCOUNTS_* environment and the optional config file
// named by --config. Flags set on the command line win, then environment,
// then file, then flag defaults.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if path := strings.TrimSpace(v.GetString("config")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}
	return v, nil
}

// LoadConfig reads and validates the typed configuration.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Listen:    v.GetString("listen"),
		PublicURL: strings.TrimSpace(v.GetString("public-url")),
		Issuer:    strings.TrimSpace(v.GetString("issuer")),

		Algorithm:      v.GetString("algorithm"),
		RSABits:        v.GetInt("rsa-bits"),
		NumKeys:        v.GetInt("num-keys"),
		AccessTokenTTL: v.GetDuration("access-token-ttl"),

		AssertionAlgorithm:   v.GetString("assertion-algorithm"),
		AssertionLeeway:      v.GetDuration("assertion-leeway"),
		MaxAssertionLifetime: v.GetDuration("max-assertion-lifetime"),

		ClientsFile:  strings.TrimSpace(v.GetString("clients-file")),
		ClientsWatch: v.GetBool("clients-watch"),

		KeysDir:          strings.TrimSpace(v.GetString("keys-dir")),
		KeysJWKSURL:      strings.TrimSpace(v.GetString("keys-jwks-url")),
		KeysJWKSCacheTTL: v.GetDuration("keys-jwks-cache-ttl"),
		KeyTimeout:       v.GetDuration("key-timeout"),

		DatabaseFile:   v.GetString("database-file"),
		SessionKeyFile: strings.TrimSpace(v.GetString("session-key-file")),
		SessionTTL:     v.GetDuration("session-ttl"),
		CodeTTL:        v.GetDuration("code-ttl"),
		SecureCookies:  v.GetBool("secure-cookies"),
		JourneyPath:    strings.TrimSpace(v.GetString("journey-path")),
		IssueTimeout:   v.GetDuration("issue-timeout"),

		NonceBackend: strings.ToLower(strings.TrimSpace(v.GetString("nonce-backend"))),
		RedisURL:     strings.TrimSpace(v.GetString("redis-url")),
		NonceTTL:     v.GetDuration("nonce-ttl"),
		NonceTimeout: v.GetDuration("nonce-timeout"),

		Env:                  v.GetString("env"),
		LogLevel:             v.GetString("log-level"),
		LogFormat:            v.GetString("log-format"),
		ShutdownGracePeriod:  v.GetDuration("shutdown-grace-period"),
		HousekeepingInterval: v.GetDuration("housekeeping-interval"),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = strings.TrimSuffix(cfg.PublicURL, "/")
	}

	return cfg, cfg.Validate()
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.PublicURL == "" {
		errs = append(errs, errors.New("public-url is required"))
	} else if u, err := url.Parse(c.PublicURL); err != nil || !u.IsAbs() || u.Host == "" {
		errs = append(errs, fmt.Errorf("public-url %q must be an absolute URL", c.PublicURL))
	}
	if c.JourneyPath != "" && !strings.HasSuffix(c.JourneyPath, "/") {
		errs = append(errs, fmt.Errorf("journey-path %q must end with /", c.JourneyPath))
	}
	if c.ClientsFile == "" {
		errs = append(errs, errors.New("clients-file is required"))
	}
	if c.KeysDir == "" && c.KeysJWKSURL == "" {
		errs = append(errs, errors.New("one of keys-dir or keys-jwks-url is required"))
	}

	switch c.Algorithm {
	case jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA:
	default:
		errs = append(errs, fmt.Errorf("algorithm %q is not supported", c.Algorithm))
	}
	switch c.AssertionAlgorithm {
	case jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA:
	default:
		errs = append(errs, fmt.Errorf("assertion-algorithm %q is not supported", c.AssertionAlgorithm))
	}

	switch c.NonceBackend {
	case NonceBackendSQLite:
	case NonceBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis-url is required when nonce-backend is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("nonce-backend %q is not supported", c.NonceBackend))
	}

	if c.NonceTTL < 0 {
		errs = append(errs, errors.New("nonce-ttl must not be negative"))
	} else if c.NonceTTL > 0 && c.NonceTTL < c.MaxAssertionLifetime+c.AssertionLeeway {
		// A jti must outlive every assertion that could still carry it.
		errs = append(errs, fmt.Errorf("nonce-ttl %s is shorter than max-assertion-lifetime plus leeway", c.NonceTTL))
	}

	for name, d := range map[string]time.Duration{
		"access-token-ttl": c.AccessTokenTTL,
		"session-ttl":      c.SessionTTL,
		"code-ttl":         c.CodeTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	return errors.Join(errs...)
}
