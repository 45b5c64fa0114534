package sensor

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// maxReplayGap caps the pause between paced frames.
const maxReplayGap = time.Second

// ReplaySource plays back recorded JSON frame lines.
type ReplaySource struct {
	r       io.Reader
	closer  io.Closer
	paced   bool
	scanner *bufio.Scanner
	last    time.Time
	mu      sync.Mutex
	running bool
	closed  chan struct{}
}

// NewReplaySource creates a ReplaySource reading from r.
// When paced is true, ReadFrame waits out the recorded gap between frames.
func NewReplaySource(r io.Reader, paced bool) *ReplaySource {
	return &ReplaySource{r: r, paced: paced}
}

// OpenReplayFile creates a ReplaySource for a recording on disk.
func OpenReplayFile(path string, paced bool) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	s := NewReplaySource(f, paced)
	s.closer = f
	return s, nil
}

// Open prepares the recording for playback.
func (s *ReplaySource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.scanner = bufio.NewScanner(s.r)
	s.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	s.last = time.Time{}
	s.closed = make(chan struct{})
	s.running = true
	return nil
}

// ReadFrame returns the next recorded frame, or io.EOF at the end of the recording.
// A paced wait is cut short by Close, which makes ReadFrame return ErrSourceNotOpen.
func (s *ReplaySource) ReadFrame() (*Frame, error) {
	frame, wait, closed, err := s.next()
	if err != nil || wait <= 0 {
		return frame, err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return frame, nil
	case <-closed:
		return nil, ErrSourceNotOpen
	}
}

// next decodes the following line and reports how long to wait before
// handing it out.
func (s *ReplaySource) next() (*Frame, time.Duration, <-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, 0, nil, ErrSourceNotOpen
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		frame, err := DecodeFrame(line)
		if err != nil {
			return nil, 0, nil, err
		}

		var wait time.Duration
		if s.paced && !s.last.IsZero() {
			if gap := frame.Timestamp.Sub(s.last); gap > 0 {
				wait = min(gap, maxReplayGap)
			}
		}
		s.last = frame.Timestamp

		return frame, wait, s.closed, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, 0, nil, fmt.Errorf("read recording: %w", err)
	}
	return nil, 0, nil, io.EOF
}

// Close stops playback and closes the underlying file, if any.
func (s *ReplaySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.closed)
		s.running = false
	}
	if s.closer != nil {
		err := s.closer.Close()
		s.closer = nil
		return err
	}
	return nil
}
