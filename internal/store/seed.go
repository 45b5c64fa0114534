package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
)

// Default sound bindings for the stock gestures.
var defaultSounds = map[string]string{
	"left-hand-overhead":  "trombone",
	"right-hand-overhead": "comedy",
	"right-punch":         "punch",
	"left-punch":          "punch",
}

// SeedDefaults inserts the stock gestures and their sound actions when no
// gestures exist yet. It reports whether anything was inserted.
func (s *Store) SeedDefaults() (bool, error) {
	n, err := s.Gestures().Count()
	if err != nil {
		return false, fmt.Errorf("count gestures: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	err = s.withTx(func(tx *sql.Tx) error {
		now := time.Now()
		for i, def := range gesture.DefaultDefinitions() {
			if err := seedGesture(tx, def, now.Add(time.Duration(i)*time.Millisecond)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// seedGesture inserts one stock gesture and its sound binding.
// created keeps the stock order stable in List.
func seedGesture(tx *sql.Tx, def gesture.Definition, created time.Time) error {
	g := GestureFromDefinition(def)
	g.ID = uuid.New().String()

	_, err := tx.Exec(
		`INSERT INTO gestures (`+gestureColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, string(g.Kind), g.Joint, g.Threshold, g.WindowMs, g.DebounceMs,
		boolToInt(g.Enabled), created, created,
	)
	if err != nil {
		return fmt.Errorf("seed gesture %q: %w", g.Name, err)
	}

	sound, ok := defaultSounds[g.Name]
	if !ok {
		return nil
	}
	config, err := json.Marshal(map[string]string{"sound": sound})
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO actions (`+actionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), g.ID, gesture.Started.String(), "sound", "play", string(config), 1, created,
	)
	if err != nil {
		return fmt.Errorf("seed action for %q: %w", g.Name, err)
	}
	return nil
}
