package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

type fakeDampening struct {
	value float64
	err   error
	sets  int
}

func (f *fakeDampening) Dampening() float64 { return f.value }

func (f *fakeDampening) SetDampening(v float64) error {
	if f.err != nil {
		return f.err
	}
	f.sets++
	f.value = v
	return nil
}

func decodeDampening(t *testing.T, body []byte) float64 {
	t.Helper()
	var got dampeningBody
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("failed to decode %s: %v", body, err)
	}
	if got.Dampening == nil {
		t.Fatalf("response %s has no dampening", body)
	}
	return *got.Dampening
}

func TestSettingsHandler_Get(t *testing.T) {
	engine := &fakeDampening{value: 0.25}
	rec := doJSON(t, NewSettingsHandler(engine), http.MethodGet, "/api/settings/dampening", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := decodeDampening(t, rec.Body.Bytes()); got != 0.25 {
		t.Errorf("dampening = %v, want 0.25", got)
	}
}

func TestSettingsHandler_Put(t *testing.T) {
	engine := &fakeDampening{value: 0.5}
	handler := NewSettingsHandler(engine)

	for _, v := range []float64{0, 0.7, 1} {
		rec := doJSON(t, handler, http.MethodPut, "/api/settings/dampening", map[string]any{"dampening": v})
		if rec.Code != http.StatusOK {
			t.Fatalf("PUT %v: expected status %d, got %d", v, http.StatusOK, rec.Code)
		}
		if got := decodeDampening(t, rec.Body.Bytes()); got != v {
			t.Errorf("response dampening = %v, want %v", got, v)
		}
		if engine.value != v {
			t.Errorf("engine dampening = %v, want %v", engine.value, v)
		}
	}
}

func TestSettingsHandler_PutInvalid(t *testing.T) {
	engine := &fakeDampening{value: 0.5}
	handler := NewSettingsHandler(engine)

	for _, body := range []any{"nope", map[string]any{}, map[string]any{"dampening": -0.1}, map[string]any{"dampening": 1.5}} {
		rec := doJSON(t, handler, http.MethodPut, "/api/settings/dampening", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("PUT %v: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
		}
	}
	if engine.sets != 0 || engine.value != 0.5 {
		t.Errorf("invalid requests changed the engine: %+v", engine)
	}
}

func TestSettingsHandler_PutStoreFailure(t *testing.T) {
	engine := &fakeDampening{value: 0.5, err: errors.New("disk full")}
	rec := doJSON(t, NewSettingsHandler(engine), http.MethodPut, "/api/settings/dampening", map[string]any{"dampening": 0.2})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestSettingsHandler_MethodNotAllowed(t *testing.T) {
	rec := doJSON(t, NewSettingsHandler(&fakeDampening{}), http.MethodPost, "/api/settings/dampening", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
