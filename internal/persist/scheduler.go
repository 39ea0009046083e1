// Package persist coalesces rapid mutation bursts into a single durable
// write. Every Schedule call replaces the pending state and restarts one
// owned debounce timer; only the timer's expiry (or an explicit Flush)
// writes the latest pending state. A save arriving while a write is in
// flight waits behind it rather than interleaving.
package persist

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/curio/pkg/types"
)

// DefaultDebounce is the debounce window used when none is configured.
const DefaultDebounce = time.Second

// WriteFunc performs the actual durable write of a full catalog state.
type WriteFunc func(state types.CatalogState) error

// Scheduler debounces full-state saves.
type Scheduler struct {
	write    WriteFunc
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex // protects pending, timer, closed
	pending *types.CatalogState
	timer   *time.Timer
	closed  bool

	// writeMu serializes the write path so a second save queues behind an
	// in-flight one instead of interleaving.
	writeMu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDebounce sets the debounce window. Non-positive values select
// DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler that persists states through write.
func New(write WriteFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		write:    write,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule records state as the pending full state and restarts the
// debounce timer. Bursts of calls collapse into one write of the last
// state scheduled.
func (s *Scheduler) Schedule(state types.CatalogState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	st := state.Clone()
	s.pending = &st
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.onTimer)
		return
	}
	s.timer.Reset(s.debounce)
}

// onTimer fires on debounce expiry and writes the pending state, if any.
func (s *Scheduler) onTimer() {
	if err := s.Flush(); err != nil {
		s.logger.Error("debounced save failed", "error", err)
	}
}

// Flush synchronously writes any pending state, bypassing the timer.
// Used on teardown so no scheduled state is lost. Returns the write
// error, leaving the pending state cleared either way; the caller owns
// retry policy.
func (s *Scheduler) Flush() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	if pending == nil {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.write(*pending)
}

// Pending reports whether a scheduled state awaits writing.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Close flushes any pending state and stops the timer. Further Schedule
// calls are ignored. Idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.Flush()
}
