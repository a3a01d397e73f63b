package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/keys"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// InitSigningKeys generates the access-token signing keys. They live only in
// memory: access tokens are short lived and every relying party refetches
// the JWKS, so a restart costs at most one token lifetime.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	logger.Info("initializing ephemeral key manager",
		"algorithm", cfg.Algorithm,
		"num_keys", cfg.NumKeys,
	)

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
	}

	logger.Info("generated ephemeral signing keys",
		"algorithm", km.Algorithm(),
		"num_keys", km.NumSigners(),
		"issuer", cfg.Issuer,
	)
	return km, nil
}

// InitClientKeys builds the resolver for client assertion keys. A JWKS URL
// wins over a key directory.
func InitClientKeys(cfg Config, logger *slog.Logger) (keys.Resolver, error) {
	if cfg.KeysJWKSURL != "" {
		r, err := keys.NewJWKSResolver(keys.JWKSOptions{
			URL:        cfg.KeysJWKSURL,
			HTTPClient: &http.Client{Timeout: keyTimeout(cfg)},
			CacheTTL:   cfg.KeysJWKSCacheTTL,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("client keys served by remote JWKS", "url", cfg.KeysJWKSURL, "cache_ttl", cfg.KeysJWKSCacheTTL)
		return r, nil
	}

	r, err := keys.LoadDir(cfg.KeysDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load client keys: %w", err)
	}
	logger.Info("client keys loaded", "dir", cfg.KeysDir, "count", r.Len())
	return r, nil
}

// InitSealer loads the session sealing key. Without a key file, sessions do
// not survive a restart.
func InitSealer(cfg Config, logger *slog.Logger) (*cryptox.Sealer, error) {
	s, ephemeral, err := cryptox.LoadSealer(cfg.SessionKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load session key: %w", err)
	}
	if ephemeral {
		logger.Warn("no session key file configured; sessions are lost on restart")
	}
	return s, nil
}

func keyTimeout(cfg Config) time.Duration {
	if cfg.KeyTimeout > 0 {
		return cfg.KeyTimeout
	}
	return service.DefaultKeyTimeout
}
