package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/curio/pkg/types"
)

// dbFileName is the database file created inside the data directory.
const dbFileName = "catalog.db"

// batchGroupSize is the number of rows per transaction in batch imports.
// A single large import never holds one transaction open for the whole
// dataset; each group commits independently.
const batchGroupSize = 1000

// Compile-time interface check.
var _ types.Adapter = (*Backend)(nil)

// Backend is the indexed Adapter implementation.
type Backend struct {
	config types.Config
	logger *slog.Logger
	images types.ImageStore

	mu    sync.RWMutex
	ready bool
	db    *sql.DB
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

// New creates an unopened indexed backend; call Init before use.
func New(config types.Config, opts ...Option) *Backend {
	b := &Backend{
		config: config,
		logger: slog.Default(),
		images: types.NoopImageStore{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init creates the data directory, opens the database, and applies the
// schema. Returns ErrAlreadyOpen if called twice.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready {
		return types.ErrAlreadyOpen
	}
	if err := b.config.Validate(); err != nil {
		return err
	}

	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", b.dbPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	// Single writer; SQLite serializes writes anyway and one connection
	// avoids SQLITE_BUSY under concurrent mutation.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.ready = true
	return nil
}

func (b *Backend) dbPath() string {
	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, dbFileName)
}

// IsReady reports whether Init has completed successfully.
func (b *Backend) IsReady() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ready
}

// Close releases the database connection. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return nil
	}
	b.ready = false
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	return nil
}

// checkReady returns ErrAdapterClosed when the backend is not open.
// Caller must hold b.mu (read or write).
func (b *Backend) checkReadyLocked() error {
	if !b.ready {
		return types.ErrAdapterClosed
	}
	return nil
}

// newUUID generates a UUID v7 string, falling back to v4.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// GetStorageInfo identifies this backend and its database file.
func (b *Backend) GetStorageInfo() types.StorageInfo {
	return types.StorageInfo{
		Backend:  types.BackendSQLite,
		Location: b.dbPath(),
	}
}

// Vacuum reclaims space after large deletes.
func (b *Backend) Vacuum() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	if _, err := b.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// Optimize merges the FTS index and refreshes planner statistics.
// Best-effort: failures are logged, never raised.
func (b *Backend) Optimize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	if _, err := b.db.Exec("INSERT INTO items_fts(items_fts) VALUES('optimize')"); err != nil {
		b.logger.Warn("fts optimize failed", "error", err)
	}
	if _, err := b.db.Exec("ANALYZE"); err != nil {
		b.logger.Warn("analyze failed", "error", err)
	}
	return nil
}

// GetStatistics summarizes the catalog for diagnostics.
func (b *Backend) GetStatistics() (types.Statistics, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkReadyLocked(); err != nil {
		return types.Statistics{}, err
	}

	stats := types.Statistics{ItemsByCategory: map[string]int{}}
	if err := b.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&stats.TotalItems); err != nil {
		return types.Statistics{}, fmt.Errorf("counting items: %w", err)
	}
	if err := b.db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&stats.TotalCategories); err != nil {
		return types.Statistics{}, fmt.Errorf("counting categories: %w", err)
	}
	rows, err := b.db.Query("SELECT category_id, COUNT(*) FROM items GROUP BY category_id")
	if err != nil {
		return types.Statistics{}, fmt.Errorf("counting per category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return types.Statistics{}, err
		}
		stats.ItemsByCategory[id] = n
	}
	if err := rows.Err(); err != nil {
		return types.Statistics{}, err
	}
	if info, err := os.Stat(b.dbPath()); err == nil {
		stats.StorageBytes = info.Size()
	}
	return stats, nil
}
