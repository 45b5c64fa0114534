package gesture

import (
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// EngineConfig holds configuration for an Engine.
type EngineConfig struct {
	// Dampening is the initial smoothing factor in [0, 1].
	Dampening float64
}

// Result is the outcome of processing one raw frame.
type Result struct {
	// Body is the smoothed body the gestures were evaluated against.
	Body skeleton.Body
	// Events holds the transitions emitted this frame, in registration order.
	Events []Event
}

// Engine smooths raw frames and fans each smoothed Body out to every registered gesture.
//
// An Engine is driven by a single producer: ProcessFrame must not be called
// concurrently. SetDampening is safe from any goroutine.
type Engine struct {
	smoother *skeleton.Smoother
	gestures []Gesture
}

// NewEngine creates an Engine with the given gestures registered in order.
func NewEngine(cfg EngineConfig, gestures ...Gesture) *Engine {
	e := &Engine{
		smoother: skeleton.NewSmoother(cfg.Dampening),
		gestures: make([]Gesture, 0, len(gestures)),
	}
	for _, g := range gestures {
		e.Register(g)
	}
	return e
}

// Register appends a gesture. Gestures are evaluated in registration order.
func (e *Engine) Register(g Gesture) {
	if g == nil {
		return
	}
	e.gestures = append(e.gestures, g)
}

// SetGestures replaces the registered gesture set.
func (e *Engine) SetGestures(gestures []Gesture) {
	e.gestures = e.gestures[:0]
	for _, g := range gestures {
		e.Register(g)
	}
}

// Gestures returns a copy of the registered gestures.
func (e *Engine) Gestures() []Gesture {
	out := make([]Gesture, len(e.gestures))
	copy(out, e.gestures)
	return out
}

// SetDampening sets the smoothing factor used from the next frame on.
func (e *Engine) SetDampening(f float64) {
	e.smoother.SetDampening(f)
}

// Dampening returns the current smoothing factor.
func (e *Engine) Dampening() float64 {
	return e.smoother.Dampening()
}

// ProcessFrame smooths raw and evaluates every gesture against the result.
// Every gesture is evaluated even if listeners of an earlier one fail; their
// errors are joined and returned alongside the complete Result.
func (e *Engine) ProcessFrame(raw skeleton.Body, now time.Time) (Result, error) {
	res := Result{Body: e.smoother.Smooth(raw)}

	var errs []error
	for _, g := range e.gestures {
		ev, err := g.Process(res.Body, now)
		if ev != nil {
			res.Events = append(res.Events, *ev)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

// ProcessJoints builds a Body from a raw joint map and processes it.
// If the Body cannot be built, no state changes and the construction error is returned.
func (e *Engine) ProcessJoints(joints map[skeleton.JointID]skeleton.Vector3, now time.Time) (Result, error) {
	body, err := skeleton.FromSkeleton(joints)
	if err != nil {
		return Result{}, err
	}
	return e.ProcessFrame(body, now)
}

// Reset clears the smoother and every gesture.
func (e *Engine) Reset() {
	e.smoother.Reset()
	for _, g := range e.gestures {
		g.Reset()
	}
}
