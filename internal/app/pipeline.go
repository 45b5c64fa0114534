package app

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

// readErrorBackoff is the pause after a failed read before trying again.
const readErrorBackoff = 100 * time.Millisecond

// runPipeline reads frames until stopCh closes or the source ends.
//
// Frames without a tracked person are dropped and the smoother keeps its held
// state. Frames are read but dropped while the app is disabled.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		frame, err := a.source.ReadFrame()
		switch {
		case err == nil:
		case errors.Is(err, sensor.ErrNoTrackedSkeleton):
			continue
		case errors.Is(err, io.EOF):
			log.Println("Sensor stream ended")
			return
		default:
			log.Printf("Error reading frame: %v", err)
			select {
			case <-stopCh:
				return
			case <-time.After(readErrorBackoff):
			}
			continue
		}

		if !a.IsEnabled() {
			continue
		}

		if _, err := a.ProcessFrame(frame); err != nil {
			log.Printf("Frame at %s: %v", frame.Timestamp.Format(time.TimeOnly), err)
		}
	}
}

// ProcessFrame runs one frame through the engine and notifies hooks.
//
// A frame missing a required joint is skipped and the error returned; no
// state changes. Listener errors are returned after the frame is fully
// processed and published.
func (a *App) ProcessFrame(frame *sensor.Frame) (FrameResult, error) {
	a.engineMu.Lock()
	res, err := a.engine.ProcessJoints(frame.Joints, frame.Timestamp)
	a.engineMu.Unlock()

	if errors.Is(err, skeleton.ErrMissingJoint) {
		return FrameResult{}, err
	}

	out := FrameResult{
		Timestamp: frame.Timestamp,
		Body:      res.Body,
		Events:    res.Events,
	}

	a.mu.Lock()
	a.latest = res.Body
	a.hasBody = true
	if n := len(res.Events); n > 0 {
		a.lastEvent = res.Events[n-1]
		a.hasEvent = true
	}
	frameHooks := a.frameHooks
	gestureHooks := a.gestureHooks
	a.mu.Unlock()

	for _, ev := range res.Events {
		log.Printf("Gesture %s %s", ev.Gesture, ev.Type)
		for _, fn := range gestureHooks {
			fn(ev)
		}
	}
	for _, fn := range frameHooks {
		fn(out)
	}

	return out, err
}
