package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Action binds a plugin action to a gesture transition.
type Action struct {
	ID         string
	GestureID  string
	Trigger    gesture.EventType
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
}

// ActionRepository provides CRUD operations for actions.
type ActionRepository struct {
	db *sql.DB
}

// Actions returns the action repository for this store.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{db: s.db}
}

const actionColumns = `id, gesture_id, trigger_event, plugin_name, action_name, config, enabled, created_at`

func scanAction(row rowScanner) (*Action, error) {
	a := &Action{}
	var trigger, config string
	var enabled int

	err := row.Scan(&a.ID, &a.GestureID, &trigger, &a.PluginName, &a.ActionName, &config, &enabled, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.Trigger, err = gesture.ParseEventType(trigger)
	if err != nil {
		return nil, err
	}
	a.Config = json.RawMessage(config)
	a.Enabled = enabled != 0
	return a, nil
}

func queryActions(db *sql.DB, query string, args ...any) ([]*Action, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return actions, nil
}

func (a *Action) configOrEmpty() string {
	if len(a.Config) == 0 {
		return "{}"
	}
	return string(a.Config)
}

// Create inserts a new action into the database.
// A zero Trigger defaults to gesture.Started.
func (r *ActionRepository) Create(a *Action) error {
	a.CreatedAt = time.Now()
	if a.Trigger == 0 {
		a.Trigger = gesture.Started
	}

	_, err := r.db.Exec(
		`INSERT INTO actions (`+actionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.GestureID, a.Trigger.String(), a.PluginName, a.ActionName, a.configOrEmpty(),
		boolToInt(a.Enabled), a.CreatedAt,
	)
	return err
}

// GetByID retrieves an action by its ID.
func (r *ActionRepository) GetByID(id string) (*Action, error) {
	a, err := scanAction(r.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// ListByGestureID retrieves all actions bound to a gesture.
func (r *ActionRepository) ListByGestureID(gestureID string) ([]*Action, error) {
	return queryActions(r.db,
		`SELECT `+actionColumns+` FROM actions WHERE gesture_id = ? ORDER BY created_at, id`,
		gestureID,
	)
}

// List retrieves all actions from the database.
func (r *ActionRepository) List() ([]*Action, error) {
	return queryActions(r.db, `SELECT `+actionColumns+` FROM actions ORDER BY created_at, id`)
}

// Update updates an existing action in the database.
func (r *ActionRepository) Update(a *Action) error {
	if a.Trigger == 0 {
		a.Trigger = gesture.Started
	}

	result, err := r.db.Exec(
		`UPDATE actions SET gesture_id = ?, trigger_event = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		a.GestureID, a.Trigger.String(), a.PluginName, a.ActionName, a.configOrEmpty(), boolToInt(a.Enabled), a.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// Delete removes an action from the database by its ID.
func (r *ActionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}
