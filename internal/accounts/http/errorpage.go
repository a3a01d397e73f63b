package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// ErrorPageHandler godoc
//
//	@Summary		Error Page
//	@Description	Where authorize sends the browser when the client or redirect URI cannot be trusted. Echoes the error parameters; codes outside the catalog read as invalid_request.
//	@Tags			OAuth2
//	@Produce		json
//	@Param			error				query		string					false	"Error code"
//	@Param			error_description	query		string					false	"Reason"
//	@Success		400					{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/error [get].
func ErrorPageHandler() http.HandlerFunc {
	known := make(map[string]bool)
	for _, k := range service.Kinds() {
		known[k.String()] = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := q.Get("error")
		if !known[code] {
			code = service.KindInvalidRequest.String()
		}
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
			Error:            code,
			ErrorDescription: q.Get("error_description"),
		})
	}
}
