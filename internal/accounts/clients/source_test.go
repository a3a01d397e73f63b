package clients_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/clients"
	"github.com/stretchr/testify/require"
)

const registryYAML = `version: 1
clients:
  - client_id: rp-1
    client_name: Relying Party One
    scope: delete-account
    redirect_uris:
      - https://rp.example.com/callback
      - https://rp.example.com/alt
    key_alias: rp-1-signing
  - client_id: rp-2
    client_name: Relying Party Two
    scope: register-passkey
    redirect_uris: [https://two.example.com/cb]
    key_alias: rp-2-signing
    jwks_uri: https://two.example.com/jwks.json
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads registrations", func(t *testing.T) {
		src, err := clients.NewFileSource(writeFile(t, dir, "clients.yaml", registryYAML))
		require.NoError(t, err)

		list, err := src.List(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "rp-1", list[0].ID)
		require.Equal(t, []string{"https://rp.example.com/callback", "https://rp.example.com/alt"}, list[0].RedirectURIs)
		require.Equal(t, "https://two.example.com/jwks.json", list[1].JWKSURI)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		src, err := clients.NewFileSource(writeFile(t, dir, "typo.yaml", "version: 1\nclients:\n  - client_id: a\n    redirect_uri: https://a/cb\n"))
		require.NoError(t, err)

		_, err = src.List(context.Background())
		require.Error(t, err)
	})

	t.Run("unsupported version", func(t *testing.T) {
		src, err := clients.NewFileSource(writeFile(t, dir, "v2.yaml", "version: 2\nclients: []\n"))
		require.NoError(t, err)

		_, err = src.List(context.Background())
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		src, err := clients.NewFileSource(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)

		_, err = src.List(context.Background())
		require.Error(t, err)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := clients.NewFileSource("  ")
		require.Error(t, err)
	})
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clients.yaml", registryYAML)

	src, err := clients.NewFileSource(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := clients.NewRegistry(ctx, src)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- clients.Watch(ctx, reg, path, 10*time.Millisecond) }()

	updated := registryYAML + `  - client_id: rp-3
    client_name: Relying Party Three
    scope: change-email
    redirect_uris: [https://three.example.com/cb]
    key_alias: rp-3-signing
`
	// The watcher may not be registered yet; keep rewriting until it sees one.
	require.Eventually(t, func() bool {
		tmp := filepath.Join(dir, "clients.yaml.tmp")
		if os.WriteFile(tmp, []byte(updated), 0o600) != nil || os.Rename(tmp, path) != nil {
			return false
		}
		_, err := reg.Lookup("rp-3")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	t.Run("broken edit keeps last good snapshot", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("version: 1\nclients: [oops"), 0o600))
		time.Sleep(100 * time.Millisecond)

		_, err := reg.Lookup("rp-3")
		require.NoError(t, err)
	})

	cancel()
	require.NoError(t, <-done)
}
