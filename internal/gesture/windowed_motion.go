package gesture

import (
	"math"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// WindowedMotion defaults.
const (
	DefaultWindow          = 150 * time.Millisecond
	DefaultMotionThreshold = 0.40
)

// PositionSample is one x coordinate of the tracked joint and its capture time.
type PositionSample struct {
	X    float64
	When time.Time
}

// WindowedMotion recognizes a fast horizontal thrust of a joint, such as a punch.
//
// It keeps the joint's x coordinate over a trailing time window and measures the
// total variation of x across it: back-and-forth motion accumulates distance
// instead of cancelling out.
type WindowedMotion struct {
	listeners

	id        string
	name      string
	joint     skeleton.JointID
	threshold float64
	window    time.Duration

	active  bool
	samples []PositionSample // oldest first
}

// NewWindowedMotion creates a punch-style gesture for joint.
// Zero or negative threshold and window select the defaults.
func NewWindowedMotion(id, name string, joint skeleton.JointID, threshold float64, window time.Duration) *WindowedMotion {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &WindowedMotion{
		id:        id,
		name:      name,
		joint:     joint,
		threshold: threshold,
		window:    window,
		samples:   make([]PositionSample, 0, 16),
	}
}

// ID returns the gesture identifier.
func (g *WindowedMotion) ID() string { return g.id }

// Name returns the gesture name.
func (g *WindowedMotion) Name() string { return g.name }

// Joint returns the tracked joint.
func (g *WindowedMotion) Joint() skeleton.JointID { return g.joint }

// Threshold returns the amplitude above which the gesture is active.
func (g *WindowedMotion) Threshold() float64 { return g.threshold }

// Window returns the length of the trailing sample window.
func (g *WindowedMotion) Window() time.Duration { return g.window }

// Active reports whether the amplitude was above threshold on the last frame.
func (g *WindowedMotion) Active() bool { return g.active }

// Process evaluates one frame.
func (g *WindowedMotion) Process(body skeleton.Body, now time.Time) (*Event, error) {
	g.samples = append(g.samples, PositionSample{X: body.Joint(g.joint).X, When: now})
	g.evict(now)

	over := g.amplitude() > g.threshold

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

	ev := Event{GestureID: g.id, Gesture: g.name, Type: typ, At: now}
	return &ev, g.emit(ev)
}

// Reset clears the active flag and the sample window.
func (g *WindowedMotion) Reset() {
	g.active = false
	g.samples = g.samples[:0]
}

// evict drops samples captured before now-window. The newest sample always stays.
func (g *WindowedMotion) evict(now time.Time) {
	cutoff := now.Add(-g.window)
	i := 0
	for i < len(g.samples)-1 && g.samples[i].When.Before(cutoff) {
		i++
	}
	if i > 0 {
		n := copy(g.samples, g.samples[i:])
		g.samples = g.samples[:n]
	}
}

// amplitude returns the total variation of x over the window.
func (g *WindowedMotion) amplitude() float64 {
	var span float64
	for i := 1; i < len(g.samples); i++ {
		span += math.Abs(g.samples[i].X - g.samples[i-1].X)
	}
	return span
}
