// Package gesture recognizes discrete body gestures from a stream of smoothed
// skeleton snapshots and reports them as Started/Ended transitions.
package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// EventType distinguishes the two edges of a gesture.
type EventType int

const (
	// Started is emitted when a gesture begins.
	Started EventType = iota + 1
	// Ended is emitted when a gesture that had started stops.
	Ended
)

// String returns "started" or "ended".
func (t EventType) String() string {
	switch t {
	case Started:
		return "started"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ParseEventType parses "started" or "ended".
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "started":
		return Started, nil
	case "ended":
		return Ended, nil
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// MarshalJSON encodes the type as its string form.
func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "started" or "ended".
func (t *EventType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEventType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Event is a single gesture transition.
type Event struct {
	GestureID string    `json:"gesture_id"`
	Gesture   string    `json:"gesture"`
	Type      EventType `json:"type"`
	At        time.Time `json:"at"`
}

// Listener is called synchronously on the frame path when a gesture transitions.
// It must return quickly; slow work belongs on the listener's own goroutine.
type Listener func(Event) error

// Gesture is a stateful recognizer fed one smoothed Body per frame.
type Gesture interface {
	// ID returns the unique identifier of this gesture instance.
	ID() string
	// Name returns the human-readable name.
	Name() string
	// Process evaluates one frame taken at now. It returns the transition, if any,
	// after delivering it to the registered listeners. Listener failures are joined
	// into the returned error; the transition is still applied.
	Process(body skeleton.Body, now time.Time) (*Event, error)
	// Active reports whether the gesture is currently happening.
	Active() bool
	// OnStarted registers a listener for Started transitions.
	OnStarted(fn Listener)
	// OnEnded registers a listener for Ended transitions.
	OnEnded(fn Listener)
	// Reset returns the gesture to its initial state. Listeners are kept.
	Reset()
}

// listeners holds the observers shared by every gesture variant.
type listeners struct {
	started []Listener
	ended   []Listener
}

func (l *listeners) OnStarted(fn Listener) {
	if fn != nil {
		l.started = append(l.started, fn)
	}
}

func (l *listeners) OnEnded(fn Listener) {
	if fn != nil {
		l.ended = append(l.ended, fn)
	}
}

// emit delivers ev to every listener for its type, in registration order.
// A failing listener does not stop the ones after it.
func (l *listeners) emit(ev Event) error {
	fns := l.started
	if ev.Type == Ended {
		fns = l.ended
	}

	var errs []error
	for _, fn := range fns {
		if err := fn(ev); err != nil {
			errs = append(errs, fmt.Errorf("%s %s listener: %w", ev.Gesture, ev.Type, err))
		}
	}
	return errors.Join(errs...)
}
