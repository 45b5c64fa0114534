package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/skeleton"
)

func punchRow(id, name string) *Gesture {
	return &Gesture{
		ID:        id,
		Name:      name,
		Kind:      gesture.KindWindowedMotion,
		Joint:     "HandRight",
		Threshold: 0.4,
		WindowMs:  150,
		Enabled:   true,
	}
}

func TestGestureRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := punchRow("g-1", "right-punch")
	if err := repo.Create(g); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}

	if g.CreatedAt.IsZero() || g.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID("g-1")
	if err != nil {
		t.Fatalf("failed to get gesture by ID: %v", err)
	}

	ignoreTimes := cmp.FilterPath(func(p cmp.Path) bool {
		name := p.Last().String()
		return name == ".CreatedAt" || name == ".UpdatedAt"
	}, cmp.Ignore())
	if diff := cmp.Diff(g, got, ignoreTimes); diff != "" {
		t.Errorf("GetByID() mismatch (-want +got):\n%s", diff)
	}
}

func TestGestureRepository_CreateDuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if err := repo.Create(punchRow("g-1", "punch")); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	if err := repo.Create(punchRow("g-2", "punch")); err == nil {
		t.Error("expected unique constraint error for duplicate name")
	}
}

func TestGestureRepository_RejectsUnknownKind(t *testing.T) {
	s := newTestStore(t)

	g := punchRow("g-1", "wave")
	g.Kind = "wave"
	if err := s.Gestures().Create(g); err == nil {
		t.Error("expected check constraint error for unknown kind")
	}
}

func TestGestureRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName() error = %v, want ErrNotFound", err)
	}
}

func TestGestureRepository_GetByName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if err := repo.Create(punchRow("g-1", "right-punch")); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}

	got, err := repo.GetByName("right-punch")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.ID != "g-1" {
		t.Errorf("ID = %q, want g-1", got.ID)
	}
}

func TestGestureRepository_ListAndCount(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	gestures, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gestures) != 0 {
		t.Errorf("expected empty list, got %d", len(gestures))
	}

	for _, g := range []*Gesture{punchRow("a", "first"), punchRow("b", "second")} {
		if err := repo.Create(g); err != nil {
			t.Fatalf("failed to create gesture: %v", err)
		}
	}

	gestures, err = repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gestures) != 2 {
		t.Fatalf("expected 2 gestures, got %d", len(gestures))
	}

	n, err := repo.Count()
	if err != nil || n != 2 {
		t.Errorf("Count() = %d, %v, want 2", n, err)
	}
}

func TestGestureRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := punchRow("g-1", "right-punch")
	if err := repo.Create(g); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	created := g.UpdatedAt

	time.Sleep(10 * time.Millisecond)
	g.Threshold = 0.6
	g.Enabled = false
	if err := repo.Update(g); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID("g-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Threshold != 0.6 {
		t.Errorf("Threshold = %v, want 0.6", got.Threshold)
	}
	if got.Enabled {
		t.Error("Enabled should be false after update")
	}
	if !got.UpdatedAt.After(created) {
		t.Error("UpdatedAt should advance on update")
	}

	if err := repo.Update(punchRow("missing", "x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() of missing gesture error = %v, want ErrNotFound", err)
	}
}

func TestGestureRepository_DeleteCascadesActions(t *testing.T) {
	s := newTestStore(t)

	if err := s.Gestures().Create(punchRow("g-1", "right-punch")); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	action := &Action{ID: "a-1", GestureID: "g-1", PluginName: "sound", ActionName: "play", Enabled: true}
	if err := s.Actions().Create(action); err != nil {
		t.Fatalf("failed to create action: %v", err)
	}

	if err := s.Gestures().Delete("g-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := s.Actions().GetByID("a-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("action should be removed with its gesture, got %v", err)
	}
	if err := s.Gestures().Delete("g-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestGesture_DefinitionRoundTrip(t *testing.T) {
	def := gesture.Definition{
		ID:       "g-1",
		Name:     "left-hand-overhead",
		Kind:     gesture.KindThresholdHold,
		Joint:    skeleton.HandLeft,
		Debounce: 500 * time.Millisecond,
		Enabled:  true,
	}

	row := GestureFromDefinition(def)
	if row.Joint != "HandLeft" || row.DebounceMs != 500 {
		t.Errorf("GestureFromDefinition() = %+v", row)
	}

	got, err := row.Definition()
	if err != nil {
		t.Fatalf("Definition() error = %v", err)
	}
	if diff := cmp.Diff(def, got); diff != "" {
		t.Errorf("Definition() mismatch (-want +got):\n%s", diff)
	}

	row.Joint = "Tail"
	if _, err := row.Definition(); err == nil {
		t.Error("expected error for unknown joint name")
	}
}
