package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/keys"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

const readyzTimeout = 2 * time.Second

// Pinger is a dependency with a reachability check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness is what /readyz checks besides the store and signer. Nil fields
// are reported as ok.
type Readiness struct {
	// Nonces is checked when the nonce store is separate from the main
	// store.
	Nonces Pinger

	Clients interface{ Len() int }

	// Keys is checked through Ready() bool or Len() int, whichever it has.
	Keys keys.Resolver
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe covering the database, the nonce store, the access-token signer, the client registry and the client key source.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	signer *jwtx.KeyManager,
	deps Readiness,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: "ok",
			Nonces:   "ok",
			Signer:   "ok",
			Clients:  "ok",
			Keys:     "ok",
		}
		ready := true
		fail := func(field *string, msg string) {
			*field = "error: " + msg
			ready = false
		}

		if err := st.Ping(ctx); err != nil {
			fail(&checks.Database, err.Error())
		}
		if deps.Nonces != nil {
			if err := deps.Nonces.Ping(ctx); err != nil {
				fail(&checks.Nonces, err.Error())
			}
		}
		if signer == nil || !signer.IsReady() {
			fail(&checks.Signer, "no keys loaded")
		}
		if deps.Clients != nil && deps.Clients.Len() == 0 {
			fail(&checks.Clients, "no clients registered")
		}
		switch k := deps.Keys.(type) {
		case interface{ Ready() bool }:
			if !k.Ready() {
				fail(&checks.Keys, "key set not fetched")
			}
		case interface{ Len() int }:
			if k.Len() == 0 {
				fail(&checks.Keys, "no keys loaded")
			}
		}

		status, code := "ok", http.StatusOK
		if !ready {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
