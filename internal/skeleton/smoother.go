package skeleton

import "sync"

// Smoother suppresses sensor jitter with per-axis exponential smoothing of the
// x and y coordinates of every joint in a Body.
//
// Smooth must be driven by a single producer. SetDampening may be called from
// any goroutine and takes effect on the next Smooth.
type Smoother struct {
	held        Body
	initialized bool

	mu     sync.Mutex
	factor float64
}

// NewSmoother creates a Smoother with the given dampening factor.
// A factor of 0 holds the first frame forever.
func NewSmoother(factor float64) *Smoother {
	s := &Smoother{}
	s.SetDampening(factor)
	return s
}

// SetDampening sets the blend weight applied to each new raw sample.
// Values are clamped into [0, 1].
func (s *Smoother) SetDampening(factor float64) {
	switch {
	case factor < 0:
		factor = 0
	case factor > 1:
		factor = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.factor = factor
}

// Dampening returns the current dampening factor.
func (s *Smoother) Dampening() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.factor
}

// Smooth blends raw into the held state and returns a copy of the result.
// The first call after construction or Reset returns raw unchanged.
// Z coordinates are carried over from the held state.
func (s *Smoother) Smooth(raw Body) Body {
	if !s.initialized {
		s.held = raw
		s.initialized = true
		return s.held
	}

	f := s.Dampening()
	s.held.Head = blend(s.held.Head, raw.Head, f)
	s.held.LeftHand = blend(s.held.LeftHand, raw.LeftHand, f)
	s.held.RightHand = blend(s.held.RightHand, raw.RightHand, f)
	return s.held
}

// Reset discards the held state so the next frame passes through verbatim.
func (s *Smoother) Reset() {
	s.held = Body{}
	s.initialized = false
}

func blend(held, raw Vector3, f float64) Vector3 {
	held.X += f * (raw.X - held.X)
	held.Y += f * (raw.Y - held.Y)
	return held
}
