package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClientsCheck(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid registry", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`version: 1
clients:
  - client_id: rp-1
    scope: change-email
    redirect_uris: [https://rp.example.com/cb]
    key_alias: rp-1
`), 0o600))

		out, err := run(t, "clients", "check", path)
		require.NoError(t, err)
		require.Contains(t, out, "1 clients ok")
	})

	t.Run("unknown scope", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`version: 1
clients:
  - client_id: rp-1
    scope: reset-everything
    redirect_uris: [https://rp.example.com/cb]
    key_alias: rp-1
`), 0o600))

		_, err := run(t, "clients", "check", path)
		require.ErrorContains(t, err, `unknown scope "reset-everything"`)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := run(t, "clients", "check")
		require.Error(t, err)
	})
}

func TestServeRejectsIncompleteConfig(t *testing.T) {
	_, err := run(t, "serve", "--public-url=https://accounts.example.com")
	require.ErrorContains(t, err, "clients-file is required")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "accounts v")
}
