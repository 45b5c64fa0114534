package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/skeleton"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Gesture represents a gesture definition stored in the database.
type Gesture struct {
	ID         string
	Name       string
	Kind       gesture.Kind
	Joint      string
	Threshold  float64
	WindowMs   int64
	DebounceMs int64
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Definition converts the stored row into a buildable gesture definition.
func (g *Gesture) Definition() (gesture.Definition, error) {
	joint, err := skeleton.ParseJointID(g.Joint)
	if err != nil {
		return gesture.Definition{}, fmt.Errorf("gesture %q: %w", g.Name, err)
	}

	return gesture.Definition{
		ID:        g.ID,
		Name:      g.Name,
		Kind:      g.Kind,
		Joint:     joint,
		Threshold: g.Threshold,
		Window:    time.Duration(g.WindowMs) * time.Millisecond,
		Debounce:  time.Duration(g.DebounceMs) * time.Millisecond,
		Enabled:   g.Enabled,
	}, nil
}

// GestureFromDefinition builds a storable row from d.
func GestureFromDefinition(d gesture.Definition) *Gesture {
	return &Gesture{
		ID:         d.ID,
		Name:       d.Name,
		Kind:       d.Kind,
		Joint:      d.Joint.String(),
		Threshold:  d.Threshold,
		WindowMs:   d.Window.Milliseconds(),
		DebounceMs: d.Debounce.Milliseconds(),
		Enabled:    d.Enabled,
	}
}

// GestureRepository provides CRUD operations for gestures.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

const gestureColumns = `id, name, kind, joint, threshold, window_ms, debounce_ms, enabled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGesture(row rowScanner) (*Gesture, error) {
	g := &Gesture{}
	var kind string
	var enabled int

	err := row.Scan(&g.ID, &g.Name, &kind, &g.Joint, &g.Threshold, &g.WindowMs, &g.DebounceMs,
		&enabled, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	g.Kind = gesture.Kind(kind)
	g.Enabled = enabled != 0
	return g, nil
}

// Create inserts a new gesture into the database.
func (r *GestureRepository) Create(g *Gesture) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO gestures (`+gestureColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, string(g.Kind), g.Joint, g.Threshold, g.WindowMs, g.DebounceMs,
		boolToInt(g.Enabled), g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// GetByID retrieves a gesture by its ID.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// GetByName retrieves a gesture by its name.
func (r *GestureRepository) GetByName(name string) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// List retrieves all gestures in creation order.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(`SELECT ` + gestureColumns + ` FROM gestures ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []*Gesture
	for rows.Next() {
		g, err := scanGesture(rows)
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return gestures, nil
}

// Count returns the number of stored gestures.
func (r *GestureRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM gestures`).Scan(&n)
	return n, err
}

// Update updates an existing gesture in the database.
func (r *GestureRepository) Update(g *Gesture) error {
	g.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE gestures SET name = ?, kind = ?, joint = ?, threshold = ?, window_ms = ?,
		 debounce_ms = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		g.Name, string(g.Kind), g.Joint, g.Threshold, g.WindowMs, g.DebounceMs,
		boolToInt(g.Enabled), g.UpdatedAt, g.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// Delete removes a gesture and its actions by gesture ID.
func (r *GestureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// requireRow returns ErrNotFound when a statement touched no rows.
func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
