// Package sensor provides skeleton frame sources for the gesture engine.
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

var (
	// ErrSourceNotOpen is returned when reading from a source that is not open.
	ErrSourceNotOpen = errors.New("source is not open")

	// ErrNoTrackedSkeleton is returned for frames in which nobody is tracked.
	// The stream itself is still healthy; callers usually skip the frame.
	ErrNoTrackedSkeleton = errors.New("no tracked skeleton in frame")
)

// Frame is one timestamped snapshot of the tracked person's joints.
type Frame struct {
	Timestamp time.Time
	Joints    map[skeleton.JointID]skeleton.Vector3
}

// Source defines the interface for skeleton frame sources.
type Source interface {
	// Open starts the source.
	Open() error

	// ReadFrame blocks until the next frame is available.
	// It returns io.EOF when the stream ends.
	ReadFrame() (*Frame, error)

	// Close stops the source and releases its resources.
	Close() error
}

// Tracking states reported per skeleton.
const (
	TrackingTracked      = "tracked"
	TrackingPositionOnly = "position_only"
	TrackingNotTracked   = "not_tracked"
)

// wireFrame is the JSON line format emitted by sensor bridges.
type wireFrame struct {
	TimestampMs int64          `json:"timestamp_ms"`
	Skeletons   []wireSkeleton `json:"skeletons"`
}

type wireSkeleton struct {
	Tracking string                      `json:"tracking"`
	Joints   map[string]skeleton.Vector3 `json:"joints"`
}

// DecodeFrame parses one JSON line and returns the first fully tracked skeleton.
// Frames without a timestamp are stamped with the current time.
func DecodeFrame(data []byte) (*Frame, error) {
	return decodeFrame(data, time.Now())
}

func decodeFrame(data []byte, received time.Time) (*Frame, error) {
	var wf wireFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}

	for _, sk := range wf.Skeletons {
		if sk.Tracking != TrackingTracked {
			continue
		}

		joints := make(map[skeleton.JointID]skeleton.Vector3, len(sk.Joints))
		for name, pos := range sk.Joints {
			id, err := skeleton.ParseJointID(name)
			if err != nil {
				return nil, fmt.Errorf("parse frame: %w", err)
			}
			joints[id] = pos
		}

		ts := received
		if wf.TimestampMs > 0 {
			ts = time.UnixMilli(wf.TimestampMs)
		}
		return &Frame{Timestamp: ts, Joints: joints}, nil
	}

	return nil, ErrNoTrackedSkeleton
}

// EncodeFrame renders a frame in the JSON line format, without a trailing newline.
func EncodeFrame(f *Frame) ([]byte, error) {
	joints := make(map[string]skeleton.Vector3, len(f.Joints))
	for id, pos := range f.Joints {
		joints[id.String()] = pos
	}
	return json.Marshal(wireFrame{
		TimestampMs: f.Timestamp.UnixMilli(),
		Skeletons:   []wireSkeleton{{Tracking: TrackingTracked, Joints: joints}},
	})
}
