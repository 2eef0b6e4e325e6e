package http

import (
	"encoding/json"
	"net/http"
)

// StatusResponse is the JSON body of operational endpoints such as /health.
type StatusResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Message string            `json:"message,omitempty"`
}

// WriteJSON writes v as JSON with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Encoding errors are not reported to the client
	_ = json.NewEncoder(w).Encode(v)
}

// SeeOther redirects with 303 so the browser follows up with a GET.
func SeeOther(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// NoStore marks a response as not cacheable. Pages carrying single-use form
// tokens must not be replayed from a cache.
func NoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
