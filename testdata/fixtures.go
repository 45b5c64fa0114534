// Package testdata holds recorded skeleton streams for replay tests.
package testdata

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"

	"github.com/ayusman/mudra/internal/sensor"
)

//go:embed frames/*.jsonl
var framesFS embed.FS

// Recordings shipped with the package.
const (
	// Overhead raises the left hand above the head, holds it past the
	// debounce window and lowers it again. One frame has no tracked skeleton.
	Overhead = "overhead.jsonl"
	// Punch thrusts the right hand out sideways and holds it there.
	Punch = "punch.jsonl"
)

// LoadRecording returns the raw JSON lines of a recording.
func LoadRecording(name string) ([]byte, error) {
	data, err := framesFS.ReadFile("frames/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return data, nil
}

// Replay returns an unpaced source that plays back a recording.
func Replay(name string) (*sensor.ReplaySource, error) {
	data, err := LoadRecording(name)
	if err != nil {
		return nil, err
	}
	return sensor.NewReplaySource(bytes.NewReader(data), false), nil
}

// LoadFrames decodes every tracked frame of a recording.
func LoadFrames(name string) ([]*sensor.Frame, error) {
	src, err := Replay(name)
	if err != nil {
		return nil, err
	}
	if err := src.Open(); err != nil {
		return nil, err
	}
	defer src.Close()

	var frames []*sensor.Frame
	for {
		frame, err := src.ReadFrame()
		switch {
		case errors.Is(err, io.EOF):
			return frames, nil
		case errors.Is(err, sensor.ErrNoTrackedSkeleton):
			continue
		case err != nil:
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		frames = append(frames, frame)
	}
}
