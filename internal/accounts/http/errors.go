package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// writeError writes the catalog entry for err's kind. The cause is logged
// here and never sent.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	l := slogx.FromContext(r.Context())
	if kind == service.KindServerError {
		l.Error("request failed", "kind", kind.String(), "err", err)
	} else {
		l.Info("request rejected", "kind", kind.String(), "err", err)
	}
	writeKind(w, kind)
}

func writeKind(w http.ResponseWriter, kind service.Kind) {
	e := kind.Entry()
	authsdk.NewOAuth2Error(e.Status, e.Code, e.Description).WriteError(w)
}
