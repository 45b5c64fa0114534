package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// countingReloader records how often handlers asked for a reload.
type countingReloader struct {
	calls int
}

func (r *countingReloader) LoadGestures() error {
	r.calls++
	return nil
}

func createPunch(t *testing.T, s *store.Store, id, name string) *store.Gesture {
	t.Helper()
	g := &store.Gesture{
		ID:        id,
		Name:      name,
		Kind:      gesture.KindWindowedMotion,
		Joint:     "HandRight",
		Threshold: 0.4,
		WindowMs:  150,
		Enabled:   true,
	}
	if err := s.Gestures().Create(g); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	return g
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGestureHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)
	createPunch(t, s, "g-1", "right-punch")

	rec := doJSON(t, handler, http.MethodGet, "/api/gestures", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listGesturesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Gestures) != 1 {
		t.Fatalf("expected 1 gesture, got %d", len(response.Gestures))
	}

	got := response.Gestures[0]
	if got.ID != "g-1" || got.Kind != "windowed_motion" || got.Joint != "HandRight" || got.WindowMs != 150 {
		t.Errorf("unexpected gesture %+v", got)
	}
}

func TestGestureHandler_ListEmpty(t *testing.T) {
	s := newTestStore(t)
	rec := doJSON(t, NewGestureHandler(s, nil), http.MethodGet, "/api/gestures", nil)

	var response listGesturesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Gestures == nil || len(response.Gestures) != 0 {
		t.Errorf("expected empty non-nil list, got %v", response.Gestures)
	}
}

func TestGestureHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)
	createPunch(t, s, "g-1", "right-punch")

	rec := doJSON(t, handler, http.MethodGet, "/api/gestures/g-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got gestureResponse
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Name != "right-punch" {
		t.Errorf("expected right-punch, got %q", got.Name)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/gestures/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestGestureHandler_CreateAppliesDefaults(t *testing.T) {
	s := newTestStore(t)
	reloader := &countingReloader{}
	handler := NewGestureHandler(s, reloader)

	rec := doJSON(t, handler, http.MethodPost, "/api/gestures", map[string]any{
		"name":  "left-jab",
		"kind":  "windowed_motion",
		"joint": "HandLeft",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var got gestureResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID == "" {
		t.Error("expected generated ID")
	}
	if got.Threshold != gesture.DefaultMotionThreshold || got.WindowMs != gesture.DefaultWindow.Milliseconds() {
		t.Errorf("expected stock motion parameters, got threshold %v window %d", got.Threshold, got.WindowMs)
	}
	if !got.Enabled {
		t.Error("new gestures should be enabled")
	}
	if reloader.calls != 1 {
		t.Errorf("expected 1 reload, got %d", reloader.calls)
	}

	stored, err := s.Gestures().GetByID(got.ID)
	if err != nil {
		t.Fatalf("gesture not stored: %v", err)
	}
	if stored.Joint != "HandLeft" {
		t.Errorf("stored joint = %q", stored.Joint)
	}
}

func TestGestureHandler_CreateHoldDefaults(t *testing.T) {
	s := newTestStore(t)
	rec := doJSON(t, NewGestureHandler(s, nil), http.MethodPost, "/api/gestures", map[string]any{
		"name":  "head-tap",
		"kind":  "threshold_hold",
		"joint": "HandRight",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var got gestureResponse
	json.NewDecoder(rec.Body).Decode(&got)
	if got.DebounceMs != gesture.DefaultDebounce.Milliseconds() {
		t.Errorf("debounce_ms = %d, want %d", got.DebounceMs, gesture.DefaultDebounce.Milliseconds())
	}
}

func TestGestureHandler_CreateInvalid(t *testing.T) {
	s := newTestStore(t)
	reloader := &countingReloader{}
	handler := NewGestureHandler(s, reloader)

	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{not json"},
		{"missing kind", map[string]any{"name": "x", "joint": "HandLeft"}},
		{"unknown kind", map[string]any{"name": "x", "kind": "wave", "joint": "HandLeft"}},
		{"unknown joint", map[string]any{"name": "x", "kind": "threshold_hold", "joint": "Tail"}},
		{"missing name", map[string]any{"kind": "threshold_hold", "joint": "HandLeft"}},
		{"negative window", map[string]any{"name": "x", "kind": "windowed_motion", "joint": "HandLeft", "window_ms": -1}},
		{"zero debounce", map[string]any{"name": "x", "kind": "threshold_hold", "joint": "HandLeft", "debounce_ms": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/api/gestures", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}
		})
	}

	if n, _ := s.Gestures().Count(); n != 0 {
		t.Errorf("expected nothing stored, got %d", n)
	}
	if reloader.calls != 0 {
		t.Errorf("rejected requests must not reload, got %d", reloader.calls)
	}
}

func TestGestureHandler_CreateDuplicateName(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)
	createPunch(t, s, "g-1", "right-punch")

	rec := doJSON(t, handler, http.MethodPost, "/api/gestures", map[string]any{
		"name":  "right-punch",
		"kind":  "windowed_motion",
		"joint": "HandRight",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestGestureHandler_UpdatePartial(t *testing.T) {
	s := newTestStore(t)
	reloader := &countingReloader{}
	handler := NewGestureHandler(s, reloader)
	createPunch(t, s, "g-1", "right-punch")

	rec := doJSON(t, handler, http.MethodPut, "/api/gestures/g-1", map[string]any{
		"threshold": 0.6,
		"enabled":   false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := s.Gestures().GetByID("g-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Threshold != 0.6 || stored.Enabled {
		t.Errorf("update not applied: %+v", stored)
	}
	if stored.Name != "right-punch" || stored.WindowMs != 150 {
		t.Errorf("unset fields changed: %+v", stored)
	}
	if reloader.calls != 1 {
		t.Errorf("expected 1 reload, got %d", reloader.calls)
	}
}

func TestGestureHandler_UpdateErrors(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)
	createPunch(t, s, "g-1", "right-punch")
	createPunch(t, s, "g-2", "left-punch")

	rec := doJSON(t, handler, http.MethodPut, "/api/gestures/missing", map[string]any{"threshold": 0.5})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: expected %d, got %d", http.StatusNotFound, rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/gestures/g-1", map[string]any{"joint": "Elbow"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad joint: expected %d, got %d", http.StatusBadRequest, rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/gestures/g-2", map[string]any{"name": "right-punch"})
	if rec.Code != http.StatusConflict {
		t.Errorf("rename clash: expected %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestGestureHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	reloader := &countingReloader{}
	handler := NewGestureHandler(s, reloader)
	createPunch(t, s, "g-1", "right-punch")

	rec := doJSON(t, handler, http.MethodDelete, "/api/gestures/g-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if _, err := s.Gestures().GetByID("g-1"); err == nil {
		t.Error("gesture should be deleted")
	}
	if reloader.calls != 1 {
		t.Errorf("expected 1 reload, got %d", reloader.calls)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/gestures/g-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestGestureHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewGestureHandler(s, nil)

	if rec := doJSON(t, handler, http.MethodDelete, "/api/gestures", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("collection DELETE: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodPost, "/api/gestures/g-1", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("item POST: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
