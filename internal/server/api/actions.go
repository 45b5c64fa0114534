package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// ActionHandler handles HTTP requests for gesture action bindings.
type ActionHandler struct {
	store    *store.Store
	reloader Reloader
}

// NewActionHandler creates a new ActionHandler. reloader may be nil.
func NewActionHandler(s *store.Store, reloader Reloader) *ActionHandler {
	return &ActionHandler{store: s, reloader: reloader}
}

// ServeHTTP routes /api/actions and /api/actions/{id}.
// GET /api/actions?gesture_id=... filters by gesture.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/actions")

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

type actionRequest struct {
	GestureID  *string         `json:"gesture_id"`
	Trigger    *string         `json:"trigger"`
	PluginName *string         `json:"plugin_name"`
	ActionName *string         `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type actionResponse struct {
	ID         string          `json:"id"`
	GestureID  string          `json:"gesture_id"`
	Trigger    string          `json:"trigger"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listActionsResponse struct {
	Actions []actionResponse `json:"actions"`
}

func toActionResponse(a *store.Action) actionResponse {
	return actionResponse{
		ID:         a.ID,
		GestureID:  a.GestureID,
		Trigger:    a.Trigger.String(),
		PluginName: a.PluginName,
		ActionName: a.ActionName,
		Config:     a.Config,
		Enabled:    a.Enabled,
		CreatedAt:  a.CreatedAt.Format(timeFormat),
	}
}

// apply copies the set fields of req onto a.
func (req actionRequest) apply(a *store.Action) error {
	if req.GestureID != nil {
		a.GestureID = *req.GestureID
	}
	if req.Trigger != nil {
		t, err := gesture.ParseEventType(*req.Trigger)
		if err != nil {
			return err
		}
		a.Trigger = t
	}
	if req.PluginName != nil {
		a.PluginName = *req.PluginName
	}
	if req.ActionName != nil {
		a.ActionName = *req.ActionName
	}
	if req.Config != nil {
		if !json.Valid(req.Config) {
			return errors.New("config must be valid JSON")
		}
		a.Config = req.Config
	}
	if req.Enabled != nil {
		a.Enabled = *req.Enabled
	}
	return nil
}

// checkAction validates required fields and that the gesture exists.
// It returns the HTTP status and message to report on failure.
func (h *ActionHandler) checkAction(a *store.Action) (int, string) {
	switch {
	case a.GestureID == "":
		return http.StatusBadRequest, "gesture_id is required"
	case a.PluginName == "":
		return http.StatusBadRequest, "plugin_name is required"
	case a.ActionName == "":
		return http.StatusBadRequest, "action_name is required"
	}

	if _, err := h.store.Gestures().GetByID(a.GestureID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return http.StatusBadRequest, "Gesture not found"
		}
		return http.StatusInternalServerError, "Failed to verify gesture"
	}
	return 0, ""
}

// list handles GET /api/actions.
func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		actions []*store.Action
		err     error
	)
	if gid := r.URL.Query().Get("gesture_id"); gid != "" {
		actions, err = h.store.Actions().ListByGestureID(gid)
	} else {
		actions, err = h.store.Actions().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	response := listActionsResponse{
		Actions: make([]actionResponse, 0, len(actions)),
	}
	for _, a := range actions {
		response.Actions = append(response.Actions, toActionResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/actions/{id}.
func (h *ActionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.store.Actions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(a))
}

// create handles POST /api/actions. Trigger defaults to "started".
func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	a := &store.Action{
		ID:      uuid.New().String(),
		Trigger: gesture.Started,
		Enabled: true,
	}
	if err := req.apply(a); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if status, msg := h.checkAction(a); status != 0 {
		writeError(w, status, msg)
		return
	}

	if err := h.store.Actions().Create(a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create action")
		return
	}

	reload(h.reloader)
	writeJSON(w, http.StatusCreated, toActionResponse(a))
}

// update handles PUT /api/actions/{id}.
func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.store.Actions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := req.apply(a); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if status, msg := h.checkAction(a); status != 0 {
		writeError(w, status, msg)
		return
	}

	if err := h.store.Actions().Update(a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update action")
		return
	}

	reload(h.reloader)
	writeJSON(w, http.StatusOK, toActionResponse(a))
}

// delete handles DELETE /api/actions/{id}.
func (h *ActionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Actions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete action")
		return
	}

	reload(h.reloader)
	w.WriteHeader(http.StatusNoContent)
}
