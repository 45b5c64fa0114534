package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DampeningController reads and changes the smoothing factor of the running engine.
type DampeningController interface {
	Dampening() float64
	SetDampening(f float64) error
}

// SettingsHandler serves /api/settings/dampening.
type SettingsHandler struct {
	engine DampeningController
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(engine DampeningController) *SettingsHandler {
	return &SettingsHandler{engine: engine}
}

type dampeningBody struct {
	Dampening *float64 `json:"dampening"`
}

// ServeHTTP handles GET and PUT on the dampening setting.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f := h.engine.Dampening()
		writeJSON(w, http.StatusOK, dampeningBody{Dampening: &f})
	case http.MethodPut:
		h.put(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	var req dampeningBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Dampening == nil {
		writeError(w, http.StatusBadRequest, "dampening is required")
		return
	}

	f := *req.Dampening
	if f < 0 || f > 1 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("dampening must be within [0, 1], got %v", f))
		return
	}

	if err := h.engine.SetDampening(f); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save dampening")
		return
	}

	writeJSON(w, http.StatusOK, dampeningBody{Dampening: &f})
}
