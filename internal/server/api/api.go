// Package api provides the JSON HTTP handlers for gestures, actions and settings.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// Reloader rebuilds the running gesture set after definitions or bindings change.
type Reloader interface {
	LoadGestures() error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// itemID splits a request path under prefix into an item ID, or "" for the collection.
func itemID(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

// reload asks the engine to pick up store changes. Failures are logged; the
// change itself is already saved.
func reload(r Reloader) {
	if r == nil {
		return
	}
	if err := r.LoadGestures(); err != nil {
		log.Printf("Failed to reload gestures: %v", err)
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
