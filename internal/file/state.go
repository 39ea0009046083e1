package file

import (
	"github.com/mesh-intelligence/curio/pkg/types"
)

// LoadState returns the full catalog state. The background loader is
// awaited so partially-loaded catalogs do not leak out of a full-state
// read.
func (b *Backend) LoadState() (types.CatalogState, error) {
	if err := b.checkReady(); err != nil {
		return types.CatalogState{}, err
	}
	b.loading.Wait()
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked().Clone(), nil
}

// SaveState replaces the full catalog state and schedules a debounced
// write.
func (b *Backend) SaveState(state types.CatalogState) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	b.loading.Wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = state.Items
	if b.items == nil {
		b.items = []types.Item{}
	}
	b.categories = state.Categories
	if b.categories == nil {
		b.categories = []types.Category{}
	}
	b.reindexLocked()
	b.scheduleLocked()
	return nil
}

// ExportData aggregates the current state into one interchange document.
func (b *Backend) ExportData() (types.ExportDocument, error) {
	state, err := b.LoadState()
	if err != nil {
		return types.ExportDocument{}, err
	}
	return types.NewExportDocument(state), nil
}

// ImportData validates the document, fully replaces the current state,
// and writes it through synchronously (import bypasses the debounce so
// the caller sees a durable result). Progress is reported per committed
// group of batchGroupSize items.
func (b *Backend) ImportData(doc types.ExportDocument, progress types.ProgressFunc) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	b.loading.Wait()

	b.mu.Lock()
	b.items = make([]types.Item, 0, len(doc.Items))
	total := len(doc.Items)
	for start := 0; start < total; start += batchGroupSize {
		end := start + batchGroupSize
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			item := doc.Items[i]
			item.Normalize()
			if item.ID == "" {
				item.ID = newUUID()
			}
			b.items = append(b.items, item)
		}
		if progress != nil {
			progress(end, total)
		}
	}
	b.categories = doc.Categories
	if b.categories == nil {
		b.categories = []types.Category{}
	}
	b.reindexLocked()
	state := b.snapshotLocked()
	b.mu.Unlock()

	return b.writeState(state)
}

// Backup flushes pending writes and snapshots the durable state to a
// timestamped document file.
func (b *Backend) Backup() (string, error) {
	if err := b.checkReady(); err != nil {
		return "", err
	}
	if err := b.scheduler.Flush(); err != nil {
		return "", err
	}
	return b.store.Backup()
}

// Vacuum is a no-op for the file backend: SaveAll already reflows chunks
// and removes stale trailing files.
func (b *Backend) Vacuum() error {
	return b.checkReady()
}

// Optimize forces any pending debounced state to disk. Best-effort by
// contract; an error here is logged and swallowed.
func (b *Backend) Optimize() error {
	if err := b.checkReady(); err != nil {
		return err
	}
	if err := b.scheduler.Flush(); err != nil {
		b.logger.Warn("optimize flush failed", "error", err)
	}
	return nil
}

// GetStatistics summarizes the catalog for diagnostics.
func (b *Backend) GetStatistics() (types.Statistics, error) {
	if err := b.checkReady(); err != nil {
		return types.Statistics{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	stats := types.Statistics{
		TotalItems:      len(b.items),
		TotalCategories: len(b.categories),
		ItemsByCategory: map[string]int{},
		StorageBytes:    b.store.StorageBytes(),
	}
	for i := range b.items {
		stats.ItemsByCategory[b.items[i].CategoryID]++
	}
	return stats, nil
}
