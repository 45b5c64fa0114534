package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// GestureHandler handles HTTP requests for gesture definitions.
type GestureHandler struct {
	store    *store.Store
	reloader Reloader
}

// NewGestureHandler creates a new GestureHandler. reloader may be nil.
func NewGestureHandler(s *store.Store, reloader Reloader) *GestureHandler {
	return &GestureHandler{store: s, reloader: reloader}
}

// ServeHTTP routes /api/gestures and /api/gestures/{id}.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/gestures")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// gestureRequest is used for both create and update. On update, nil fields
// keep their stored value.
type gestureRequest struct {
	Name       *string  `json:"name"`
	Kind       *string  `json:"kind"`
	Joint      *string  `json:"joint"`
	Threshold  *float64 `json:"threshold"`
	WindowMs   *int64   `json:"window_ms"`
	DebounceMs *int64   `json:"debounce_ms"`
	Enabled    *bool    `json:"enabled"`
}

type gestureResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Joint      string  `json:"joint"`
	Threshold  float64 `json:"threshold"`
	WindowMs   int64   `json:"window_ms"`
	DebounceMs int64   `json:"debounce_ms"`
	Enabled    bool    `json:"enabled"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

func toGestureResponse(g *store.Gesture) gestureResponse {
	return gestureResponse{
		ID:         g.ID,
		Name:       g.Name,
		Kind:       string(g.Kind),
		Joint:      g.Joint,
		Threshold:  g.Threshold,
		WindowMs:   g.WindowMs,
		DebounceMs: g.DebounceMs,
		Enabled:    g.Enabled,
		CreatedAt:  g.CreatedAt.Format(timeFormat),
		UpdatedAt:  g.UpdatedAt.Format(timeFormat),
	}
}

// apply copies the set fields of req onto g.
func (req gestureRequest) apply(g *store.Gesture) {
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Kind != nil {
		g.Kind = gesture.Kind(*req.Kind)
	}
	if req.Joint != nil {
		g.Joint = *req.Joint
	}
	if req.Threshold != nil {
		g.Threshold = *req.Threshold
	}
	if req.WindowMs != nil {
		g.WindowMs = *req.WindowMs
	}
	if req.DebounceMs != nil {
		g.DebounceMs = *req.DebounceMs
	}
	if req.Enabled != nil {
		g.Enabled = *req.Enabled
	}
}

// validateGesture checks that g can be built into a running gesture.
func validateGesture(g *store.Gesture) error {
	d, err := g.Definition()
	if err != nil {
		return err
	}
	return d.Validate()
}

// newGestureDefaults returns a row with the stock parameters for kind.
func newGestureDefaults(kind gesture.Kind) *store.Gesture {
	g := &store.Gesture{Kind: kind, Enabled: true}
	switch kind {
	case gesture.KindThresholdHold:
		g.DebounceMs = gesture.DefaultDebounce.Milliseconds()
	case gesture.KindWindowedMotion:
		g.Threshold = gesture.DefaultMotionThreshold
		g.WindowMs = gesture.DefaultWindow.Milliseconds()
	}
	return g
}

// list handles GET /api/gestures.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	gestures, err := h.store.Gestures().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list gestures")
		return
	}

	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(gestures)),
	}
	for _, g := range gestures {
		response.Gestures = append(response.Gestures, toGestureResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gestures/{id}.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	g, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	writeJSON(w, http.StatusOK, toGestureResponse(g))
}

// create handles POST /api/gestures.
func (h *GestureHandler) create(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Kind == nil {
		writeError(w, http.StatusBadRequest, "kind is required")
		return
	}

	g := newGestureDefaults(gesture.Kind(*req.Kind))
	req.apply(g)
	g.ID = uuid.New().String()

	if err := validateGesture(g); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Gestures().GetByName(g.Name); err == nil {
		writeError(w, http.StatusConflict, fmt.Sprintf("Gesture %q already exists", g.Name))
		return
	}

	if err := h.store.Gestures().Create(g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create gesture")
		return
	}

	reload(h.reloader)
	writeJSON(w, http.StatusCreated, toGestureResponse(g))
}

// update handles PUT /api/gestures/{id}.
func (h *GestureHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	g, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.apply(g)
	if err := validateGesture(g); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if other, err := h.store.Gestures().GetByName(g.Name); err == nil && other.ID != g.ID {
		writeError(w, http.StatusConflict, fmt.Sprintf("Gesture %q already exists", g.Name))
		return
	}

	if err := h.store.Gestures().Update(g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}

	reload(h.reloader)
	writeJSON(w, http.StatusOK, toGestureResponse(g))
}

// delete handles DELETE /api/gestures/{id}. Bound actions are removed with it.
func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Gestures().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete gesture")
		return
	}

	reload(h.reloader)
	w.WriteHeader(http.StatusNoContent)
}
