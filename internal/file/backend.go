// Package file implements the chunked-file storage backend. The full
// catalog state lives in memory, backed by a chunkstore.Store for
// durability; mutations hand the latest state to a debounced persistence
// scheduler so bursts of edits collapse into one disk write. The read
// path delegates filtering and sorting to the search dispatcher, which
// moves large result sets off the caller's goroutine.
package file

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/curio/internal/chunkstore"
	"github.com/mesh-intelligence/curio/internal/persist"
	"github.com/mesh-intelligence/curio/internal/search"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// batchGroupSize is the number of items per progress-reported group in
// AddItemsBatch.
const batchGroupSize = 1000

// Compile-time interface check.
var _ types.Adapter = (*Backend)(nil)

// Backend is the chunked-file Adapter implementation.
type Backend struct {
	config types.Config
	logger *slog.Logger
	images types.ImageStore

	mu         sync.RWMutex
	ready      bool
	items      []types.Item
	categories []types.Category
	byID       map[string]int // item ID -> index in items

	store      *chunkstore.Store
	scheduler  *persist.Scheduler
	dispatcher *search.Dispatcher

	loading sync.WaitGroup // background chunk loading
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithImageStore sets the cover-art collaborator. Default is a no-op
// store.
func WithImageStore(images types.ImageStore) Option {
	return func(b *Backend) {
		if images != nil {
			b.images = images
		}
	}
}

// New creates an unopened file backend; call Init before use.
func New(config types.Config, opts ...Option) *Backend {
	b := &Backend{
		config: config,
		logger: slog.Default(),
		images: types.NoopImageStore{},
		byID:   map[string]int{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init opens the chunk directory, splits any legacy monolithic catalog,
// loads the first configured chunks synchronously, and loads the rest in
// the background. Returns ErrAlreadyOpen if called twice.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready {
		return types.ErrAlreadyOpen
	}
	if err := b.config.Validate(); err != nil {
		return err
	}

	store, err := chunkstore.New(b.config.DataDir,
		chunkstore.WithChunkSize(b.config.ChunkSize),
		chunkstore.WithLogger(b.logger),
	)
	if err != nil {
		return err
	}
	b.store = store

	if err := store.SplitLegacy(); err != nil {
		return fmt.Errorf("splitting legacy catalog: %w", err)
	}

	load, meta, err := store.LoadInitial(b.config.InitialChunks)
	if err != nil {
		return err
	}
	b.items = load.Items
	b.categories = meta.Categories
	b.reindexLocked()

	debounce := persist.DefaultDebounce
	if b.config.DebounceMillis > 0 {
		debounce = time.Duration(b.config.DebounceMillis) * time.Millisecond
	}
	b.scheduler = persist.New(b.writeState,
		persist.WithDebounce(debounce),
		persist.WithLogger(b.logger),
	)

	dispatcher, err := search.New(1, search.WithLogger(b.logger))
	if err != nil {
		return err
	}
	b.dispatcher = dispatcher

	if load.LoadedChunks < load.ChunkCount {
		b.loading.Add(1)
		go b.loadRemaining(load.LoadedChunks)
	}

	b.ready = true
	return nil
}

// loadRemaining fetches trailing chunks in the background. Chunks arrive
// in positional order from a single goroutine, so the aggregated list
// stays ordered.
func (b *Backend) loadRemaining(fromChunk int) {
	defer b.loading.Done()
	items, err := b.store.LoadRemaining(fromChunk)
	if err != nil {
		b.logger.Error("background chunk load failed", "fromChunk", fromChunk, "error", err)
		return
	}
	b.mu.Lock()
	b.items = append(b.items, items...)
	b.reindexLocked()
	b.mu.Unlock()
}

// WaitLoaded blocks until background chunk loading has finished.
func (b *Backend) WaitLoaded() {
	b.loading.Wait()
}

// IsReady reports whether Init has completed successfully.
func (b *Backend) IsReady() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ready
}

// Close flushes any pending debounced state and releases resources.
// Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	if !b.ready {
		b.mu.Unlock()
		return nil
	}
	b.ready = false
	b.mu.Unlock()

	b.loading.Wait()
	b.dispatcher.Close()
	return b.scheduler.Close()
}

// writeState is the scheduler's write function: a full reflowing save of
// items plus the denormalized category list in meta.
func (b *Backend) writeState(state types.CatalogState) error {
	meta, err := b.store.LoadMeta()
	if err != nil {
		return err
	}
	meta.Categories = state.Categories
	return b.store.SaveAll(state.Items, meta)
}

// reindexLocked rebuilds the ID index. Caller holds b.mu.
func (b *Backend) reindexLocked() {
	b.byID = make(map[string]int, len(b.items))
	for i := range b.items {
		b.byID[b.items[i].ID] = i
	}
}

// snapshotLocked captures the current state for scheduling. Caller holds
// b.mu.
func (b *Backend) snapshotLocked() types.CatalogState {
	return types.CatalogState{Items: b.items, Categories: b.categories}
}

// scheduleLocked queues the current state for a debounced save. Caller
// holds b.mu.
func (b *Backend) scheduleLocked() {
	b.scheduler.Schedule(b.snapshotLocked())
}

func (b *Backend) checkReady() error {
	if !b.IsReady() {
		return types.ErrAdapterClosed
	}
	return nil
}

// Flush forces any pending debounced state to disk immediately.
func (b *Backend) Flush() error {
	if err := b.checkReady(); err != nil {
		return err
	}
	return b.scheduler.Flush()
}

// GetStorageInfo identifies this backend and its data directory.
func (b *Backend) GetStorageInfo() types.StorageInfo {
	return types.StorageInfo{
		Backend:  types.BackendFile,
		Location: b.config.DataDir,
	}
}
