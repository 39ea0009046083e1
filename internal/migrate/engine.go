// Package migrate detects legacy on-disk catalog formats, backs them
// up, normalizes their records, and commits them through a storage
// adapter. The state machine is Detect -> BackupLegacy -> Normalize ->
// CommitToAdapter -> ClearLegacy; the backup always exists before any
// destructive step, a commit failure skips the clear step, and the
// whole sequence is safely re-runnable if interrupted after the backup.
package migrate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mesh-intelligence/curio/internal/codec"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// Source is one known legacy storage location.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Detect reports whether legacy data is present.
	Detect() (bool, error)
	// Load reads the legacy data as an interchange document.
	Load() (types.ExportDocument, error)
	// Backup copies the legacy data aside, returning the backup path.
	// Must be idempotent: an existing backup is reused.
	Backup() (string, error)
	// Clear removes the legacy data from its live location. The backup
	// is never touched.
	Clear() error
}

// Engine runs the migration sequence over a list of known sources.
type Engine struct {
	sources []Source
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine over the given legacy sources.
func New(sources []Source, opts ...Option) *Engine {
	e := &Engine{sources: sources, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the migration against adapter. When no source detects
// legacy data the run completes as a no-op success. Any failure after a
// backup was taken returns a wrapped ErrMigration and leaves both the
// legacy data and its backup intact for retry.
func (e *Engine) Run(adapter types.Adapter) error {
	for _, src := range e.sources {
		found, err := src.Detect()
		if err != nil {
			return fmt.Errorf("%w: detecting %s: %v", types.ErrMigration, src.Name(), err)
		}
		if !found {
			continue
		}
		if err := e.migrateOne(src, adapter); err != nil {
			return err
		}
	}
	return nil
}

// migrateOne runs BackupLegacy -> Normalize -> CommitToAdapter ->
// ClearLegacy for a single detected source.
func (e *Engine) migrateOne(src Source, adapter types.Adapter) error {
	backup, err := src.Backup()
	if err != nil {
		return fmt.Errorf("%w: backing up %s: %v", types.ErrMigration, src.Name(), err)
	}
	e.logger.Info("legacy data backed up", "source", src.Name(), "backup", backup)

	doc, err := src.Load()
	if err != nil {
		return fmt.Errorf("%w: loading %s: %v", types.ErrMigration, src.Name(), err)
	}
	Normalize(&doc)

	if err := adapter.ImportData(doc, nil); err != nil {
		// ClearLegacy must not run: legacy data and backup both stay for
		// retry.
		return fmt.Errorf("%w: committing %s: %v", types.ErrMigration, src.Name(), err)
	}

	if err := src.Clear(); err != nil {
		return fmt.Errorf("%w: clearing %s: %v", types.ErrMigration, src.Name(), err)
	}
	e.logger.Info("legacy migration complete",
		"source", src.Name(), "items", len(doc.Items), "categories", len(doc.Categories))
	return nil
}

// Normalize fills every optional field of every record with a typed
// default so the adapter never receives partially-shaped records.
func Normalize(doc *types.ExportDocument) {
	if doc.Version == 0 {
		doc.Version = types.SchemaVersion
	}
	if doc.Categories == nil {
		doc.Categories = []types.Category{}
	}
	if doc.Items == nil {
		doc.Items = []types.Item{}
	}
	for i := range doc.Items {
		doc.Items[i].Normalize()
	}
	for i := range doc.Categories {
		if doc.Categories[i].Fields == nil {
			doc.Categories[i].Fields = []types.CustomFieldDefinition{}
		}
	}
}

// DocumentFile is a Source for a legacy single-file catalog document.
type DocumentFile struct {
	Path string
}

// backupSuffix marks the migration backup copy of a legacy file.
const backupSuffix = ".migration-bak"

// Name identifies the source by its path.
func (d *DocumentFile) Name() string { return d.Path }

// Detect reports whether the legacy file exists.
func (d *DocumentFile) Detect() (bool, error) {
	_, err := os.Stat(d.Path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load decodes the legacy file, tolerating unknown fields.
func (d *DocumentFile) Load() (types.ExportDocument, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return types.ExportDocument{}, err
	}
	return codec.DecodeDocument(data)
}

// Backup copies the legacy file aside. Re-running after an interrupted
// migration reuses the existing backup.
func (d *DocumentFile) Backup() (string, error) {
	backup := d.Path + backupSuffix
	if _, err := os.Stat(backup); err == nil {
		return backup, nil
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", err
	}
	return backup, nil
}

// Clear removes the live legacy file; the backup copy remains.
func (d *DocumentFile) Clear() error {
	return os.Remove(d.Path)
}
