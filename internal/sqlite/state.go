package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/curio/internal/codec"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// LoadState returns the full catalog state.
func (b *Backend) LoadState() (types.CatalogState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkReadyLocked(); err != nil {
		return types.CatalogState{}, err
	}
	categories, err := b.loadCategoriesLocked()
	if err != nil {
		return types.CatalogState{}, err
	}
	rows, err := b.db.Query("SELECT " + itemColumns + " FROM items ORDER BY id")
	if err != nil {
		return types.CatalogState{}, fmt.Errorf("querying items: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return types.CatalogState{}, err
	}
	return types.CatalogState{Items: items, Categories: categories}, nil
}

// SaveState fully replaces the stored state: existing rows are cleared
// and the new state is inserted in committed groups.
func (b *Backend) SaveState(state types.CatalogState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	return b.replaceAllLocked(state, nil)
}

// replaceAllLocked clears both tables and re-inserts the state. The
// clear and category insert happen in one transaction; items follow in
// grouped transactions with optional progress. Caller holds b.mu.
func (b *Backend) replaceAllLocked(state types.CatalogState, progress types.ProgressFunc) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM items"); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM categories"); err != nil {
		return fmt.Errorf("clearing categories: %w", err)
	}
	for i := range state.Categories {
		category := state.Categories[i]
		if category.ID == "" {
			category.ID = newUUID()
		}
		args, err := categoryArgs(&category)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(insertCategorySQL, args...); err != nil {
			return fmt.Errorf("inserting category %s: %w", category.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}

	return b.insertGroupsLocked(state.Items, progress)
}

// ExportData aggregates the current state into one interchange document.
func (b *Backend) ExportData() (types.ExportDocument, error) {
	state, err := b.LoadState()
	if err != nil {
		return types.ExportDocument{}, err
	}
	return types.NewExportDocument(state), nil
}

// ImportData validates the document, then fully replaces current state.
// Nothing is written when validation fails. Progress is reported per
// committed item group.
func (b *Backend) ImportData(doc types.ExportDocument, progress types.ProgressFunc) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	return b.replaceAllLocked(types.CatalogState{
		Items:      doc.Items,
		Categories: doc.Categories,
	}, progress)
}

// Backup snapshots the current state to a timestamped document file in
// the data directory, distinct from the live database, and returns the
// written path.
func (b *Backend) Backup() (string, error) {
	doc, err := b.ExportData()
	if err != nil {
		return "", err
	}
	data, err := codec.EncodeDocument(doc)
	if err != nil {
		return "", fmt.Errorf("encoding backup: %w", err)
	}
	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	name := fmt.Sprintf("backup-%s.json", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(dataDir, name)

	tmp, err := os.CreateTemp(dataDir, ".backup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("syncing backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing backup: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming backup: %w", err)
	}
	return path, nil
}
