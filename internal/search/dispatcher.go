// Package search decides whether a filter/sort request runs in the
// caller's context or on a background worker. Dispatch serves a shared
// consumer with last-write-wins delivery: each request carries a
// monotonically increasing id and responses for superseded ids are
// silently discarded, so rapid typing or filter changes only ever render
// the latest result. DispatchWait serves independent synchronous callers
// and always returns the caller's own result.
package search

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/mesh-intelligence/curio/pkg/types"
)

// DefaultThreshold is the dataset size at which requests move off the
// caller's goroutine.
const DefaultThreshold = 10000

// Compute produces a result set; it must be pure over its captured
// inputs so it can run on a worker without locking.
type Compute func() []types.Item

// Deliver receives the result of the current (non-superseded) request.
type Deliver func(items []types.Item)

// Dispatcher routes filter/sort computations. Small datasets are served
// synchronously; large ones run on a shared worker pool.
type Dispatcher struct {
	threshold int
	pool      *ants.Pool
	logger    *slog.Logger
	lastID    atomic.Uint64
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithThreshold sets the synchronous/background cutover size.
// Non-positive values select DefaultThreshold.
func WithThreshold(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.threshold = n
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher backed by a worker pool of the given size.
// Size below one selects a single worker.
func New(poolSize int, opts ...Option) (*Dispatcher, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		threshold: DefaultThreshold,
		pool:      pool,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch runs compute for a dataset of datasetSize records and hands
// the result to deliver. Below the threshold everything happens in the
// caller's goroutine. At or above it, compute runs on the pool; if a
// newer request is issued before this one finishes, its result is
// dropped and deliver is never called.
func (d *Dispatcher) Dispatch(datasetSize int, compute Compute, deliver Deliver) {
	id := d.lastID.Add(1)

	if datasetSize < d.threshold {
		deliver(compute())
		return
	}

	d.wg.Add(1)
	err := d.pool.Submit(func() {
		defer d.wg.Done()
		result := compute()
		// Deliver only if this is still the current request.
		if d.lastID.Load() == id {
			deliver(result)
		}
	})
	if err != nil {
		d.wg.Done()
		// Pool unavailable (e.g. released); fall back to synchronous.
		d.logger.Warn("search pool submit failed, running inline", "error", err)
		if d.lastID.Load() == id {
			deliver(compute())
		}
	}
}

// DispatchWait runs compute and returns its result to the caller, using
// the pool only to bound concurrent work over large datasets. It never
// participates in last-write-wins: concurrent callers each receive their
// own result.
func (d *Dispatcher) DispatchWait(datasetSize int, compute Compute) []types.Item {
	if datasetSize < d.threshold {
		return compute()
	}
	out := make(chan []types.Item, 1)
	d.wg.Add(1)
	err := d.pool.Submit(func() {
		defer d.wg.Done()
		out <- compute()
	})
	if err != nil {
		d.wg.Done()
		// Pool unavailable (e.g. released); fall back to synchronous.
		d.logger.Warn("search pool submit failed, running inline", "error", err)
		return compute()
	}
	return <-out
}

// Close releases the worker pool after in-flight work completes.
func (d *Dispatcher) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.wg.Wait()
	d.pool.Release()
}
