package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("whatever"))
}

func TestFromContextDefault(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))

	l := slogx.Discard()
	require.Equal(t, l, slogx.FromContext(slogx.WithContext(context.Background(), l)))
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var sawLogger bool
	h := slogx.HTTPMiddleware(base, "/livez")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = slogx.FromContext(r.Context()) != slog.Default()
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("logs and propagates request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/journeys/delete-account", nil)
		req.Header.Set(slogx.RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.True(t, sawLogger)
		require.Equal(t, "req-123", rec.Header().Get(slogx.RequestIDHeader))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "http_request", line["msg"])
		require.Equal(t, "req-123", line["req_id"])
		require.EqualValues(t, http.StatusTeapot, line["status"])
	})

	t.Run("generates request id and skips quiet paths", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

		require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
		require.Zero(t, buf.Len())
	})
}
