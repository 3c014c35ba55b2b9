// Package worker runs persistence jobs off the queue: it saves snapshots
// and appends archive rows.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/archive"
	"github.com/chris-altman/chef-ai-learning-lab/internal/adapters/mq/queue"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Saver persists a snapshot. It reports false when the snapshot was stale.
type Saver interface {
	Save(ctx context.Context, s learning.State) (bool, error)
}

// Archiver appends one archive record.
type Archiver interface {
	Write(ctx context.Context, r archive.Record) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes persistence jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// Counters is shared by the workers of one pool.
type Counters struct {
	Processed atomic.Int64
	Saved     atomic.Int64
	Stale     atomic.Int64
	Archived  atomic.Int64
	Failed    atomic.Int64
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	saver    Saver
	archiver Archiver
	name     string
	counters *Counters

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker. archiver may be nil.
func NewInMemoryWorker(q Queue, saver Saver, archiver Archiver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		saver:    saver,
		archiver: archiver,
		name:     "worker",
		counters: &Counters{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "persistence job failed",
					logger.Int64("version", int64(j.Snapshot.Version)),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process saves the snapshot, then archives the record. An archive failure
// does not undo the save.
func (w *InMemoryWorker) process(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		w.counters.Processed.Add(1)
	}()

	var errs []error

	saved, err := w.saver.Save(ctx, j.Snapshot)
	switch {
	case err != nil:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("persist", "save_failed")
		metrics.RecordErrorByType("persistence_error", "high")
		w.counters.Failed.Add(1)
		errs = append(errs, fmt.Errorf("%w: save snapshot %d: %w", learning.ErrPersistence, j.Snapshot.Version, err))
	case saved:
		w.counters.Saved.Add(1)
	default:
		w.counters.Stale.Add(1)
		w.logger.Debug(ctx, "stale snapshot skipped", logger.Int64("version", int64(j.Snapshot.Version)))
	}

	if j.Record != nil && w.archiver != nil {
		if err := w.archiver.Write(ctx, *j.Record); err != nil {
			metrics.RecordWorkerError()
			w.counters.Failed.Add(1)
			errs = append(errs, fmt.Errorf("%w: archive event %s: %w", learning.ErrPersistence, j.Record.EventID, err))
		} else {
			w.counters.Archived.Add(1)
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return fmt.Errorf("%w; %w", errs[0], errs[1])
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *Counters
	logger   logger.Logger
}

// NewPool creates a pool of workerCount workers sharing one queue.
func NewPool(workerCount int, q Queue, saver Saver, archiver Archiver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		counters: &Counters{},
		logger:   logger.Nop(),
	}
	probe := &InMemoryWorker{logger: p.logger}
	for _, opt := range opts {
		opt(probe)
	}
	p.logger = probe.logger.Named("worker-pool")

	for i := 0; i < workerCount; i++ {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)), withCounters(p.counters))
		p.workers[i] = NewInMemoryWorker(q, saver, archiver, wopts...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Counters returns the shared job counters.
func (p *Pool) Counters() *Counters { return p.counters }

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still running when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker did not drain in time", logger.Int("worker_id", i))
			_ = w.Shutdown(context.Background())
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool drain: %w", drainCtx.Err())
	}
	return nil
}
