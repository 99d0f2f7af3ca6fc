// Package lanes runs live events through a fixed set of ordered worker lanes.
// Every event of a match hashes to the same lane, so a match's events are
// handled one at a time in arrival order while different matches run in parallel.
package lanes

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/XavierBriggs/Nike/pkg/models"
)

// ErrStopped is returned by Submit after Stop
var ErrStopped = errors.New("dispatcher stopped")

// Job is one event awaiting processing. Ack is called once the job's
// outcome is durable (or intentionally dropped); it may be nil.
type Job struct {
	Event models.MatchEvent
	Ack   func()
}

// Handler processes a single job on its lane
type Handler func(ctx context.Context, job Job)

// Dispatcher fans jobs out to lanes keyed by match id
type Dispatcher struct {
	lanes   []chan Job
	handler Handler
	logger  *slog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with n lanes of the given queue depth
func NewDispatcher(n, queueSize int, handler Handler, logger *slog.Logger) *Dispatcher {
	if n <= 0 {
		n = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		lanes:   make([]chan Job, n),
		handler: handler,
		logger:  logger.With("component", "lanes"),
	}
	for i := range d.lanes {
		d.lanes[i] = make(chan Job, queueSize)
	}
	return d
}

// Start launches one goroutine per lane
func (d *Dispatcher) Start(ctx context.Context) {
	for i, lane := range d.lanes {
		d.wg.Add(1)
		go d.run(ctx, i, lane)
	}
	d.logger.Info("lanes started", "lanes", len(d.lanes))
}

func (d *Dispatcher) run(ctx context.Context, id int, lane <-chan Job) {
	defer d.wg.Done()
	for job := range lane {
		d.handle(ctx, id, job)
	}
}

// handle keeps one bad job from taking down its lane
func (d *Dispatcher) handle(ctx context.Context, id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("lane handler panicked",
				"lane", id, "event_id", job.Event.EventID, "panic", r)
		}
	}()
	d.handler(ctx, job)
}

// Lane returns the lane index a match is pinned to
func (d *Dispatcher) Lane(matchID string) int {
	return int(xxhash.Sum64String(matchID) % uint64(len(d.lanes)))
}

// Submit queues a job on its match's lane, blocking while the lane is full
func (d *Dispatcher) Submit(ctx context.Context, job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	select {
	case d.lanes[d.Lane(job.Event.MatchID)] <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the lanes and waits for queued jobs to drain
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, lane := range d.lanes {
		close(lane)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("lanes stopped")
}
