package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as JSON with the given status. Responses are never
// cached since most of them carry tokens or session state.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// SeeOther redirects with 303 so browsers follow with GET after a POST.
func SeeOther(w http.ResponseWriter, location string) {
	NoCache(w)
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusSeeOther)
}

// Found redirects with 302, the status OAuth clients expect from authorize.
func Found(w http.ResponseWriter, location string) {
	NoCache(w)
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusFound)
}
