// Package json holds the shared response writer for all HTTP handlers.
package json

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes status and the JSON encoding of response. By the time
// an encode failure can surface the header is already out, so the status
// stands; the body falls back to a plain-text error.
func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
