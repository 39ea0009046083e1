// Package chunkstore persists the item list as a directory of bounded
// chunk files plus one meta file. Chunk i holds the items with flat
// offsets [i*C, (i+1)*C) for capacity C; membership is purely positional
// and full saves reflow every chunk. All file writes go through a
// temp-file, fsync, rename step so readers see either the fully-old or
// fully-new file, never a partial one.
package chunkstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/curio/internal/codec"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// On-disk file names.
const (
	metaFileName     = "meta.json"
	chunkFilePattern = "chunk-%06d.json"
)

// Store owns one catalog's chunk directory and meta file. It is not
// safe for concurrent use; the owning adapter serializes access.
type Store struct {
	dir       string
	chunkSize int
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChunkSize overrides the logical chunk capacity. Non-positive
// values select types.DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:       dir,
		chunkSize: types.DefaultChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chunk directory: %w", err)
	}
	return s, nil
}

// Dir returns the chunk directory path.
func (s *Store) Dir() string { return s.dir }

// ChunkSize returns the configured logical chunk capacity.
func (s *Store) ChunkSize() int { return s.chunkSize }

func (s *Store) metaPath() string {
	return filepath.Join(s.dir, metaFileName)
}

func (s *Store) chunkPath(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf(chunkFilePattern, index))
}

// writeAtomic writes data to path via a temp file in the same directory,
// fsync, then rename. On any failure the prior file is untouched and the
// temp file is removed; failure of that removal is swallowed.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".chunk-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// LoadMeta reads the catalog meta record. A missing meta file yields the
// default meta for an empty catalog, never an error.
func (s *Store) LoadMeta() (types.CatalogMeta, error) {
	data, err := os.ReadFile(s.metaPath())
	if err != nil {
		if os.IsNotExist(err) {
			return types.DefaultMeta(s.chunkSize), nil
		}
		return types.CatalogMeta{}, fmt.Errorf("reading meta: %w", err)
	}
	meta, err := codec.DecodeMeta(data)
	if err != nil {
		// A malformed meta file is recovered as an empty catalog rather
		// than aborting the whole load.
		s.logger.Warn("malformed meta file, starting empty", "path", s.metaPath(), "error", err)
		return types.DefaultMeta(s.chunkSize), nil
	}
	return meta, nil
}

// SaveMeta atomically writes the catalog meta record.
func (s *Store) SaveMeta(meta types.CatalogMeta) error {
	data, err := codec.EncodeMeta(meta)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}
	return s.writeAtomic(s.metaPath(), data)
}

// LoadChunk reads one chunk by index. A missing chunk yields an empty
// list, never an error; lazy loading depends on this.
func (s *Store) LoadChunk(index int) ([]types.Item, error) {
	data, err := os.ReadFile(s.chunkPath(index))
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Item{}, nil
		}
		return nil, fmt.Errorf("reading chunk %d: %w", index, err)
	}
	items, err := codec.DecodeChunk(data)
	if err != nil {
		// Treat a malformed chunk as absent rather than failing the load.
		s.logger.Warn("malformed chunk file, treating as empty", "index", index, "error", err)
		return []types.Item{}, nil
	}
	return items, nil
}

// SaveChunk atomically writes one chunk by index.
func (s *Store) SaveChunk(index int, items []types.Item) error {
	data, err := codec.EncodeChunk(items)
	if err != nil {
		return fmt.Errorf("encoding chunk %d: %w", index, err)
	}
	return s.writeAtomic(s.chunkPath(index), data)
}

// InitialLoad is the result of LoadInitial: the items of the first
// chunks plus the layout needed to fetch the rest.
type InitialLoad struct {
	Items        []types.Item
	TotalItems   int
	ChunkCount   int
	LoadedChunks int
}

// LoadInitial loads the meta record and only the first min(n, chunkCount)
// chunks, enabling fast startup on huge catalogs. Remaining chunks are
// fetched by LoadRemaining.
func (s *Store) LoadInitial(n int) (InitialLoad, types.CatalogMeta, error) {
	meta, err := s.LoadMeta()
	if err != nil {
		return InitialLoad{}, types.CatalogMeta{}, err
	}
	load := InitialLoad{
		Items:      []types.Item{},
		TotalItems: meta.TotalItems,
		ChunkCount: meta.ChunkCount,
	}
	if n <= 0 || n > meta.ChunkCount {
		n = meta.ChunkCount
	}
	for i := 0; i < n; i++ {
		items, err := s.LoadChunk(i)
		if err != nil {
			return InitialLoad{}, types.CatalogMeta{}, err
		}
		load.Items = append(load.Items, items...)
		load.LoadedChunks++
	}
	return load, meta, nil
}

// LoadRemaining loads every chunk from fromChunk through the last chunk
// and returns the aggregated items in positional order.
func (s *Store) LoadRemaining(fromChunk int) ([]types.Item, error) {
	meta, err := s.LoadMeta()
	if err != nil {
		return nil, err
	}
	var items []types.Item
	for i := fromChunk; i < meta.ChunkCount; i++ {
		chunk, err := s.LoadChunk(i)
		if err != nil {
			return nil, err
		}
		items = append(items, chunk...)
	}
	return items, nil
}

// LoadAll returns every item in positional order.
func (s *Store) LoadAll() ([]types.Item, error) {
	return s.LoadRemaining(0)
}

// SaveAll reflows the full item list into chunks, rewrites every chunk
// in range, persists the meta record, and deletes now-unused trailing
// chunk files. Deletion is best-effort: failures are logged, not fatal.
func (s *Store) SaveAll(items []types.Item, meta types.CatalogMeta) error {
	oldCount := meta.ChunkCount

	newCount := (len(items) + s.chunkSize - 1) / s.chunkSize
	lengths := make([]int, 0, newCount)
	for i := 0; i < newCount; i++ {
		lo := i * s.chunkSize
		hi := lo + s.chunkSize
		if hi > len(items) {
			hi = len(items)
		}
		if err := s.SaveChunk(i, items[lo:hi]); err != nil {
			return err
		}
		lengths = append(lengths, hi-lo)
	}

	meta.Version = types.SchemaVersion
	meta.TotalItems = len(items)
	meta.ChunkCount = newCount
	meta.ChunkSize = s.chunkSize
	meta.ChunkLengths = lengths
	meta.LastModified = nowRFC3339()
	if err := s.SaveMeta(meta); err != nil {
		return err
	}

	for i := newCount; i < oldCount; i++ {
		if err := os.Remove(s.chunkPath(i)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("removing stale chunk failed", "index", i, "error", err)
		}
	}
	return nil
}

// UpdateChunk rewrites a single chunk, then updates the cached per-chunk
// lengths in the meta record and recomputes TotalItems from them. Other
// chunks are only re-read when the cache is missing, as in a meta file
// written by an older version or edited by hand.
func (s *Store) UpdateChunk(index int, items []types.Item) error {
	meta, err := s.LoadMeta()
	if err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("%w: chunk index %d", types.ErrInvalidData, index)
	}
	if err := s.SaveChunk(index, items); err != nil {
		return err
	}

	if len(meta.ChunkLengths) != meta.ChunkCount {
		lengths := make([]int, meta.ChunkCount)
		for i := 0; i < meta.ChunkCount; i++ {
			chunk, err := s.LoadChunk(i)
			if err != nil {
				return err
			}
			lengths[i] = len(chunk)
		}
		meta.ChunkLengths = lengths
	}
	for len(meta.ChunkLengths) <= index {
		meta.ChunkLengths = append(meta.ChunkLengths, 0)
	}
	meta.ChunkLengths[index] = len(items)
	if index >= meta.ChunkCount {
		meta.ChunkCount = index + 1
	}
	total := 0
	for _, n := range meta.ChunkLengths {
		total += n
	}
	meta.TotalItems = total
	meta.LastModified = nowRFC3339()
	return s.SaveMeta(meta)
}
