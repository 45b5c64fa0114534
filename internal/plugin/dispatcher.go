package plugin

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of pending jobs a Dispatcher buffers.
const DefaultQueueSize = 32

// Job is one plugin invocation queued by a gesture transition.
type Job struct {
	Plugin  string
	Request Request
}

// Lookup resolves plugins by name. *Manager implements it.
type Lookup interface {
	Get(name string) (*Plugin, error)
}

// Runner executes a plugin request. *Executor implements it.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error)
}

// Dispatcher runs plugin jobs on a single background worker so that the
// frame loop never waits on an external process.
type Dispatcher struct {
	plugins Lookup
	runner  Runner
	queue   chan Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	dropped  atomic.Uint64
	executed atomic.Uint64
	failed   atomic.Uint64
}

// NewDispatcher creates a Dispatcher and starts its worker.
// A non-positive queueSize selects DefaultQueueSize.
func NewDispatcher(plugins Lookup, runner Runner, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		plugins: plugins,
		runner:  runner,
		queue:   make(chan Job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	d.wg.Add(1)
	go d.worker()

	return d
}

// Dispatch queues job without blocking. It returns false when the job was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Dispatch(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return false
	}

	select {
	case d.queue <- job:
		return true
	default:
		d.dropped.Add(1)
		log.Printf("plugin: queue full, dropping %s/%s for %s", job.Plugin, job.Request.Action, job.Request.Gesture)
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for job := range d.queue {
		d.run(job)
	}
}

func (d *Dispatcher) run(job Job) {
	p, err := d.plugins.Get(job.Plugin)
	if err != nil {
		d.failed.Add(1)
		log.Printf("plugin: %s: %v", job.Plugin, err)
		return
	}

	resp, err := d.runner.Execute(d.ctx, p, &job.Request)
	if err != nil {
		d.failed.Add(1)
		log.Printf("plugin: %v", err)
		return
	}
	if !resp.Success {
		d.failed.Add(1)
		log.Printf("plugin: %s/%s reported failure: %s", job.Plugin, job.Request.Action, resp.Error)
		return
	}

	d.executed.Add(1)
}

// Close stops accepting jobs, runs the jobs already queued and waits for the worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

// Stats reports how many jobs were executed, failed and dropped.
func (d *Dispatcher) Stats() (executed, failed, dropped uint64) {
	return d.executed.Load(), d.failed.Load(), d.dropped.Load()
}
