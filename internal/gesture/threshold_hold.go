package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// DefaultDebounce is the minimum interval between accepted ThresholdHold transitions.
const DefaultDebounce = 500 * time.Millisecond

// ThresholdHold recognizes a joint held above the head, such as an arm raised overhead.
//
// After a transition, frames arriving within the debounce interval are ignored
// outright: the predicate is not evaluated and state does not change, so a
// flip-flop entirely inside the interval is never seen.
type ThresholdHold struct {
	listeners

	id       string
	name     string
	joint    skeleton.JointID
	debounce time.Duration

	active     bool
	lastChange time.Time
}

// NewThresholdHold creates an overhead gesture for joint.
// A debounce of zero or less selects DefaultDebounce.
func NewThresholdHold(id, name string, joint skeleton.JointID, debounce time.Duration) *ThresholdHold {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &ThresholdHold{
		id:       id,
		name:     name,
		joint:    joint,
		debounce: debounce,
	}
}

// ID returns the gesture identifier.
func (g *ThresholdHold) ID() string { return g.id }

// Name returns the gesture name.
func (g *ThresholdHold) Name() string { return g.name }

// Joint returns the tracked joint.
func (g *ThresholdHold) Joint() skeleton.JointID { return g.joint }

// Debounce returns the debounce interval.
func (g *ThresholdHold) Debounce() time.Duration { return g.debounce }

// Active reports whether the joint is currently considered above the head.
func (g *ThresholdHold) Active() bool { return g.active }

// Process evaluates one frame.
func (g *ThresholdHold) Process(body skeleton.Body, now time.Time) (*Event, error) {
	// The zero lastChange means no transition yet; the first crossing is never gated.
	if !g.lastChange.IsZero() && now.Sub(g.lastChange) < g.debounce {
		return nil, nil
	}

	over := body.Joint(g.joint).Y > body.Head.Y

	var typ EventType
	switch {
	case !g.active && over:
		typ = Started
	case g.active && !over:
		typ = Ended
	default:
		return nil, nil
	}

	g.active = over
	g.lastChange = now

	ev := Event{GestureID: g.id, Gesture: g.name, Type: typ, At: now}
	return &ev, g.emit(ev)
}

// Reset clears the active flag and debounce history.
func (g *ThresholdHold) Reset() {
	g.active = false
	g.lastChange = time.Time{}
}
