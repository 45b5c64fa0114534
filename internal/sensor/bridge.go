package sensor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// maxLineSize bounds a single JSON frame line.
const maxLineSize = 1 << 20

// BridgeConfig holds configuration for a BridgeSource.
type BridgeConfig struct {
	// Command is the bridge executable that talks to the sensor hardware.
	Command string
	// Args are passed to Command.
	Args []string
}

// BridgeSource reads skeleton frames from a sensor bridge subprocess.
// The bridge writes one JSON frame per line to its stdout.
type BridgeSource struct {
	config  BridgeConfig
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	scanner *bufio.Scanner
	mu      sync.Mutex
	started bool

	// reads tracks ReadFrame calls still scanning stdout
	reads sync.WaitGroup
}

// NewBridgeSource creates a BridgeSource. The process starts on Open.
func NewBridgeSource(config BridgeConfig) (*BridgeSource, error) {
	if config.Command == "" {
		return nil, errors.New("bridge command is required")
	}
	if _, err := exec.LookPath(config.Command); err != nil {
		return nil, fmt.Errorf("bridge command %q not found: %w", config.Command, err)
	}

	return &BridgeSource{config: config}, nil
}

// Open starts the bridge process.
func (b *BridgeSource) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}

	b.cmd = exec.Command(b.config.Command, b.config.Args...)

	stdout, err := b.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Bridge diagnostics go straight to our stderr
	b.cmd.Stderr = os.Stderr

	if err := b.cmd.Start(); err != nil {
		return fmt.Errorf("start sensor bridge: %w", err)
	}

	b.stdout = stdout
	b.scanner = bufio.NewScanner(stdout)
	b.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	b.started = true

	return nil
}

// ReadFrame reads the next frame line from the bridge.
func (b *BridgeSource) ReadFrame() (*Frame, error) {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil, ErrSourceNotOpen
	}
	scanner := b.scanner
	b.reads.Add(1)
	b.mu.Unlock()
	defer b.reads.Done()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		return DecodeFrame(line)
	}

	// Close shuts stdout under a pending read
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return nil, fmt.Errorf("read bridge output: %w", err)
	}
	return nil, io.EOF
}

// Close stops the bridge process.
//
// The process is killed and stdout closed so a pending ReadFrame returns.
// The process is reaped only after every reader has left the pipe.
func (b *BridgeSource) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	b.started = false

	var errs []error
	killed := false
	if err := b.cmd.Process.Kill(); err == nil {
		killed = true
	} else if !errors.Is(err, os.ErrProcessDone) {
		errs = append(errs, fmt.Errorf("kill sensor bridge: %w", err))
	}

	// A child of the bridge may still hold the write end open
	b.stdout.Close()
	b.reads.Wait()

	if err := b.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !killed || !errors.As(err, &exitErr) {
			errs = append(errs, fmt.Errorf("wait for sensor bridge: %w", err))
		}
	}

	b.cmd = nil
	b.stdout = nil
	b.scanner = nil

	return errors.Join(errs...)
}
