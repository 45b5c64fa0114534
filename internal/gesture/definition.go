package gesture

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// ErrUnknownKind is returned when a Definition names an unsupported gesture family.
var ErrUnknownKind = errors.New("unknown gesture kind")

// Kind identifies a gesture family.
type Kind string

const (
	// KindThresholdHold is a joint held above the head.
	KindThresholdHold Kind = "threshold_hold"
	// KindWindowedMotion is a fast horizontal thrust of a joint.
	KindWindowedMotion Kind = "windowed_motion"
)

// Definition describes a gesture instance to build.
type Definition struct {
	ID        string
	Name      string
	Kind      Kind
	Joint     skeleton.JointID
	Threshold float64       // WindowedMotion only
	Window    time.Duration // WindowedMotion only
	Debounce  time.Duration // ThresholdHold only
	Enabled   bool
}

// Validate checks that the definition can be built.
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.Joint < 0 || d.Joint >= skeleton.NumJoints {
		return fmt.Errorf("invalid joint %v", d.Joint)
	}
	switch d.Kind {
	case KindThresholdHold, KindWindowedMotion:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
	if d.Threshold < 0 || d.Window < 0 || d.Debounce < 0 {
		return errors.New("threshold, window and debounce must not be negative")
	}
	// NewThresholdHold would read zero as DefaultDebounce
	if d.Kind == KindThresholdHold && d.Debounce == 0 {
		return errors.New("debounce must be positive")
	}
	return nil
}

// Build creates the gesture described by d.
func Build(d Definition) (Gesture, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("gesture %q: %w", d.Name, err)
	}

	if d.Kind == KindThresholdHold {
		return NewThresholdHold(d.ID, d.Name, d.Joint, d.Debounce), nil
	}
	return NewWindowedMotion(d.ID, d.Name, d.Joint, d.Threshold, d.Window), nil
}

// DefaultDefinitions returns the stock gesture set: each hand raised overhead
// and a punch with each hand. Each ID is the gesture name; stores assign their own.
func DefaultDefinitions() []Definition {
	return []Definition{
		{ID: "left-hand-overhead", Name: "left-hand-overhead", Kind: KindThresholdHold, Joint: skeleton.HandLeft, Debounce: DefaultDebounce, Enabled: true},
		{ID: "right-hand-overhead", Name: "right-hand-overhead", Kind: KindThresholdHold, Joint: skeleton.HandRight, Debounce: DefaultDebounce, Enabled: true},
		{ID: "right-punch", Name: "right-punch", Kind: KindWindowedMotion, Joint: skeleton.HandRight, Threshold: DefaultMotionThreshold, Window: DefaultWindow, Enabled: true},
		{ID: "left-punch", Name: "left-punch", Kind: KindWindowedMotion, Joint: skeleton.HandLeft, Threshold: DefaultMotionThreshold, Window: DefaultWindow, Enabled: true},
	}
}
