package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/journey"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

const maxEventBody = 16 << 10

// JourneyHandler serves the journey step endpoints. The journey is found
// through the session cookie; there is no other way to address it.
type JourneyHandler struct {
	JourneyService *service.JourneyService
}

// HandleGet godoc
//
//	@Summary		Get Journey
//	@Description	Returns the current state of the journey for scope in the caller's session, with the events it accepts.
//	@Tags			Journeys
//	@Produce		json
//	@Param			scope	path		string					true	"Journey scope"
//	@Success		200		{object}	authsdk.JourneyResponse	"journey"
//	@Failure		400		{object}	authsdk.ErrorResponse	"session_corrupt"
//	@Failure		404		{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/journeys/{scope} [get].
func (h *JourneyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.JourneyService.State(r.Context(), sessionID(r), r.PathValue("scope"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, journeyResponse(res))
}

// HandleEvent godoc
//
//	@Summary		Send Journey Event
//	@Description	Applies an event to the journey for scope. An event the current state does not accept leaves the journey unchanged and returns applied=false.
//	@Description	When the journey completes, redirect_to holds the client's redirect URI with the authorization code and state.
//	@Tags			Journeys
//	@Accept			json
//	@Produce		json
//	@Param			scope	path		string						true	"Journey scope"
//	@Param			request	body		authsdk.JourneyEventRequest	true	"Event tag and data"
//	@Success		200		{object}	authsdk.JourneyResponse		"journey, applied, redirect_to"
//	@Failure		400		{object}	authsdk.ErrorResponse		"invalid_request, session_corrupt"
//	@Failure		404		{object}	authsdk.ErrorResponse		"not_found"
//	@Failure		500		{object}	authsdk.ErrorResponse		"server_error"
//	@Router			/v1/journeys/{scope}/events [post].
func (h *JourneyHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var req authsdk.JourneyEventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil || req.Event == "" {
		writeKind(w, service.KindInvalidRequest)
		return
	}

	res, err := h.JourneyService.Send(r.Context(), sessionID(r), r.PathValue("scope"), journey.Event{
		Tag:  journey.EventTag(req.Event),
		Data: req.Data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, journeyResponse(res))
}

func journeyResponse(res *service.StepResult) authsdk.JourneyResponse {
	v := res.Journey
	return authsdk.JourneyResponse{
		Journey: authsdk.Journey{
			Scope:    v.Scope,
			State:    v.State,
			Context:  v.Context,
			Accepts:  v.Accepts,
			Terminal: v.Terminal,
		},
		Applied:    res.Applied,
		RedirectTo: res.Location,
	}
}
