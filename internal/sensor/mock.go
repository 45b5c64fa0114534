package sensor

import (
	"io"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// MockSource is a test implementation of the Source interface.
// It returns scripted frames in order, then io.EOF.
type MockSource struct {
	frames  []*Frame
	index   int
	err     error
	mu      sync.Mutex
	running bool
}

// NewMockSource creates a MockSource with the given frames.
func NewMockSource(frames ...*Frame) *MockSource {
	return &MockSource{frames: frames}
}

// SetFrames replaces the frame script and restarts playback.
func (m *MockSource) SetFrames(frames []*Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.index = 0
}

// SetError sets the error that will be returned by ReadFrame.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Open starts playback from the first frame.
func (m *MockSource) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	m.index = 0
	return nil
}

// ReadFrame returns the next scripted frame or the configured error.
func (m *MockSource) ReadFrame() (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil, ErrSourceNotOpen
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.index >= len(m.frames) {
		return nil, io.EOF
	}

	f := m.frames[m.index]
	m.index++
	return f, nil
}

// Close stops playback.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// NewFrame wraps joints in a Frame taken at ts.
func NewFrame(ts time.Time, joints map[skeleton.JointID]skeleton.Vector3) *Frame {
	return &Frame{Timestamp: ts, Joints: joints}
}

// HandsDownJoints returns a standing pose with both hands at waist height.
func HandsDownJoints() map[skeleton.JointID]skeleton.Vector3 {
	return map[skeleton.JointID]skeleton.Vector3{
		skeleton.HipCenter:      {X: 0.0, Y: -0.1, Z: 2.2},
		skeleton.Spine:          {X: 0.0, Y: 0.1, Z: 2.2},
		skeleton.ShoulderCenter: {X: 0.0, Y: 0.45, Z: 2.2},
		skeleton.Head:           {X: 0.0, Y: 0.65, Z: 2.2},
		skeleton.HandLeft:       {X: -0.35, Y: -0.05, Z: 2.1},
		skeleton.HandRight:      {X: 0.35, Y: -0.05, Z: 2.1},
	}
}

// LeftHandUpJoints returns a pose with the left hand raised above the head.
func LeftHandUpJoints() map[skeleton.JointID]skeleton.Vector3 {
	j := HandsDownJoints()
	j[skeleton.HandLeft] = skeleton.Vector3{X: -0.25, Y: 0.9, Z: 2.1}
	return j
}

// RightHandUpJoints returns a pose with the right hand raised above the head.
func RightHandUpJoints() map[skeleton.JointID]skeleton.Vector3 {
	j := HandsDownJoints()
	j[skeleton.HandRight] = skeleton.Vector3{X: 0.25, Y: 0.9, Z: 2.1}
	return j
}

// RightPunchJoints returns a pose with the right arm thrust out sideways.
func RightPunchJoints() map[skeleton.JointID]skeleton.Vector3 {
	j := HandsDownJoints()
	j[skeleton.HandRight] = skeleton.Vector3{X: 0.9, Y: 0.4, Z: 2.0}
	return j
}
