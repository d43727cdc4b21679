// Package worker drains hand-off queues with a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchcast/pkg/logger"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Handler processes one item taken off a queue.
type Handler[T any] interface {
	Handle(ctx context.Context, item T) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[T any] func(ctx context.Context, item T) error

// Handle calls f(ctx, item).
func (f HandlerFunc[T]) Handle(ctx context.Context, item T) error { return f(ctx, item) }

// Source defines how workers receive items.
type Source[T any] interface {
	Dequeue(ctx context.Context) <-chan T
}

// Worker processes items using the provided handler.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the source closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the source to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for one source and handler.
type InMemoryWorker[T any] struct {
	source  Source[T]
	handler Handler[T]
	name    string

	processed *atomic.Int64
	failed    *atomic.Int64

	// Shutdown control
	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker[T any](source Source[T], handler Handler[T], opts ...Option) *InMemoryWorker[T] {
	cfg := config{name: "worker", logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &InMemoryWorker[T]{
		source:    source,
		handler:   handler,
		name:      cfg.name,
		processed: new(atomic.Int64),
		failed:    new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    cfg.logger.Named(cfg.name),
	}
}

// Run starts the worker loop.
func (w *InMemoryWorker[T]) Run(ctx context.Context) {
	defer close(w.done)

	items := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case item, ok := <-items:
			if !ok {
				// source closed and drained
				return
			}
			if err := w.handler.Handle(ctx, item); err != nil {
				w.failed.Add(1)
				w.logger.Error(ctx, "error handling item", logger.Error(err))
				continue
			}
			w.processed.Add(1)
		}
	}
}

func (w *InMemoryWorker[T]) signal() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker[T]) Shutdown(ctx context.Context) error {
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Stats summarizes a pool's throughput.
type Stats struct {
	Workers   int   `json:"workers"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Pool manages multiple workers over one source.
type Pool[T any] struct {
	workers []*InMemoryWorker[T]
	source  Source[T]

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses the default.
func NewPool[T any](workerCount int, source Source[T], handler Handler[T], opts ...Option) *Pool[T] {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	cfg := config{name: "pool", logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool[T]{
		workers: make([]*InMemoryWorker[T], workerCount),
		source:  source,
		logger:  cfg.logger.Named(cfg.name),
	}
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(source, handler,
			WithName(cfg.name+"-"+strconv.Itoa(i)),
			WithLogger(cfg.logger),
		)
		w.processed = &p.processed
		w.failed = &p.failed
		p.workers[i] = w
	}
	return p
}

// Start starts all workers in the pool.
func (p *Pool[T]) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stats returns the pool's counters.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Workers:   len(p.workers),
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Shutdown closes the source when it supports it, lets workers drain what is
// buffered, and forces any stragglers to stop once ctx or the pool timeout
// expires.
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.signal()
		}
	}
	if timedOut {
		return fmt.Errorf("pool drain incomplete: %w", shutdownCtx.Err())
	}
	return nil
}
