package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
)

func load(t *testing.T, args ...string) (app.Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))

	v, err := app.NewViper(fs)
	require.NoError(t, err)
	return app.LoadConfig(v)
}

var required = []string{
	"--public-url=https://accounts.example.com/",
	"--clients-file=clients.yaml",
	"--keys-dir=keys",
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := load(t, required...)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Listen)
	require.Equal(t, "https://accounts.example.com", cfg.Issuer)
	require.Equal(t, "https://accounts.example.com/v1/oauth2/token", cfg.TokenEndpoint())
	require.Equal(t, "ES256", cfg.Algorithm)
	require.Equal(t, "ES256", cfg.AssertionAlgorithm)
	require.Equal(t, app.NonceBackendSQLite, cfg.NonceBackend)
	require.Equal(t, 60*time.Second, cfg.CodeTTL)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 3*time.Second, cfg.KeyTimeout)
	require.Equal(t, 2*time.Second, cfg.NonceTimeout)
	require.Equal(t, 5*time.Second, cfg.IssueTimeout)
	require.Equal(t, "/v1/journeys/", cfg.JourneyPath)
	require.True(t, cfg.SecureCookies)
	require.True(t, cfg.ClientsWatch)
}

func TestLoadConfigSources(t *testing.T) {
	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("ACCOUNTS_CODE_TTL", "90s")
		t.Setenv("ACCOUNTS_SECURE_COOKIES", "false")
		t.Setenv("ACCOUNTS_JOURNEY_PATH", "https://ui.example.com/journeys/")
		t.Setenv("ACCOUNTS_ISSUE_TIMEOUT", "8s")

		cfg, err := load(t, required...)
		require.NoError(t, err)
		require.Equal(t, 90*time.Second, cfg.CodeTTL)
		require.False(t, cfg.SecureCookies)
		require.Equal(t, "https://ui.example.com/journeys/", cfg.JourneyPath)
		require.Equal(t, 8*time.Second, cfg.IssueTimeout)
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("ACCOUNTS_LISTEN", ":9000")

		cfg, err := load(t, append(required, "--listen=:9100")...)
		require.NoError(t, err)
		require.Equal(t, ":9100", cfg.Listen)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "accounts.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"public-url: https://id.example.org\n"+
				"clients-file: /etc/accounts/clients.yaml\n"+
				"keys-jwks-url: https://keys.example.org/jwks.json\n"+
				"session-ttl: 10m\n",
		), 0o600))

		cfg, err := load(t, "--config="+path)
		require.NoError(t, err)
		require.Equal(t, "https://id.example.org", cfg.Issuer)
		require.Equal(t, "/etc/accounts/clients.yaml", cfg.ClientsFile)
		require.Equal(t, "https://keys.example.org/jwks.json", cfg.KeysJWKSURL)
		require.Equal(t, 10*time.Minute, cfg.SessionTTL)
	})

	t.Run("missing config file", func(t *testing.T) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		app.RegisterFlags(fs)
		require.NoError(t, fs.Parse([]string{"--config=" + filepath.Join(t.TempDir(), "nope.yaml")}))

		_, err := app.NewViper(fs)
		require.Error(t, err)
	})
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing set", nil, "public-url is required"},
		{"relative public url", []string{"--public-url=/accounts", "--clients-file=c", "--keys-dir=k"}, "must be an absolute URL"},
		{"no clients", []string{"--public-url=https://a.example", "--keys-dir=k"}, "clients-file is required"},
		{"no key source", []string{"--public-url=https://a.example", "--clients-file=c"}, "keys-dir or keys-jwks-url"},
		{"bad algorithm", append(required, "--algorithm=HS256"), `algorithm "HS256"`},
		{"redis without url", append(required, "--nonce-backend=redis"), "redis-url is required"},
		{"unknown backend", append(required, "--nonce-backend=memcached"), `nonce-backend "memcached"`},
		{"nonce ttl too short", append(required, "--nonce-backend=redis", "--redis-url=redis://localhost:6379", "--nonce-ttl=1m"), "shorter than max-assertion-lifetime"},
		{"journey path without slash", append(required, "--journey-path=/v1/journeys"), "journey-path"},
		{"zero code ttl", append(required, "--code-ttl=0s"), "code-ttl must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
