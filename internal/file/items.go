package file

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/curio/internal/query"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// newUUID generates a UUID v7 string, falling back to v4.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// GetItems filters, sorts, and paginates items. Large datasets run on
// the search dispatcher's worker.
func (b *Backend) GetItems(filter types.ItemFilter, sort types.SortSpec, page types.Page) ([]types.Item, error) {
	if err := b.checkReady(); err != nil {
		return nil, err
	}
	items := b.snapshotItems()

	out := b.dispatcher.DispatchWait(len(items), func() []types.Item {
		return query.Apply(items, filter, sort, page)
	})
	if out == nil {
		out = []types.Item{}
	}
	return out, nil
}

// snapshotItems copies the item slice under the read lock. UpdateItem
// writes entries of the live slice in place, so a worker must never see
// the live backing array.
func (b *Backend) snapshotItems() []types.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	items := make([]types.Item, len(b.items))
	copy(items, b.items)
	return items
}

// GetItemByID returns the item or nil when absent; absence is not an
// error.
func (b *Backend) GetItemByID(id string) (*types.Item, error) {
	if err := b.checkReady(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx, ok := b.byID[id]
	if !ok {
		return nil, nil
	}
	item := b.items[idx]
	return &item, nil
}

// GetItemCount counts all items, or those in one category.
func (b *Backend) GetItemCount(categoryID string) (int, error) {
	if err := b.checkReady(); err != nil {
		return 0, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if categoryID == "" {
		return len(b.items), nil
	}
	n := 0
	for i := range b.items {
		if b.items[i].CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// AddItem validates and stores a new item, generating an ID when absent,
// and schedules a debounced save.
func (b *Backend) AddItem(item types.Item) (string, error) {
	if err := b.checkReady(); err != nil {
		return "", err
	}
	if err := item.Validate(); err != nil {
		return "", err
	}
	item.Normalize()
	if item.ID == "" {
		item.ID = newUUID()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.byID[item.ID]; exists {
		return "", fmt.Errorf("%w: item %s", types.ErrInvalidData, item.ID)
	}
	b.items = append(b.items, item)
	b.byID[item.ID] = len(b.items) - 1
	b.scheduleLocked()
	return item.ID, nil
}

// UpdateItem replaces an existing item in place.
func (b *Backend) UpdateItem(item types.Item) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	if item.ID == "" {
		return types.ErrInvalidID
	}
	if err := item.Validate(); err != nil {
		return err
	}
	item.Normalize()

	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.byID[item.ID]
	if !ok {
		return types.ErrNotFound
	}
	b.items[idx] = item
	b.scheduleLocked()
	return nil
}

// DeleteItems removes the given items, releasing their stored images.
// Unknown IDs are skipped silently.
func (b *Backend) DeleteItems(ids []string) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	b.mu.Lock()
	kept := b.items[:0:0]
	var removed []string
	for i := range b.items {
		if drop[b.items[i].ID] {
			removed = append(removed, b.items[i].ID)
			continue
		}
		kept = append(kept, b.items[i])
	}
	b.items = kept
	b.reindexLocked()
	b.scheduleLocked()
	b.mu.Unlock()

	b.releaseImages(removed)
	return nil
}

// releaseImages deletes cover art for removed items. Failures are
// logged; the catalog mutation has already succeeded.
func (b *Backend) releaseImages(ids []string) {
	for _, id := range ids {
		if err := b.images.Delete(id); err != nil {
			b.logger.Warn("deleting item images failed", "id", id, "error", err)
		}
	}
}

// AddItemsBatch imports items in fixed-size groups, reporting progress
// after each group with the cumulative processed count. A validation
// failure discards the whole open group; earlier groups remain. One
// debounced save is scheduled when the batch completes.
func (b *Backend) AddItemsBatch(items []types.Item, progress types.ProgressFunc) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	total := len(items)
	for start := 0; start < total; start += batchGroupSize {
		end := start + batchGroupSize
		if end > total {
			end = total
		}
		// Stage the group before touching live state so a bad item does
		// not leave a partial group behind.
		group := make([]types.Item, 0, end-start)
		for i := start; i < end; i++ {
			item := items[i]
			if err := item.Validate(); err != nil {
				if start > 0 {
					// Earlier groups are committed; make sure they persist.
					b.mu.Lock()
					b.scheduleLocked()
					b.mu.Unlock()
				}
				return fmt.Errorf("item %d: %w", i, err)
			}
			item.Normalize()
			if item.ID == "" {
				item.ID = newUUID()
			}
			group = append(group, item)
		}
		b.mu.Lock()
		for _, item := range group {
			b.items = append(b.items, item)
			b.byID[item.ID] = len(b.items) - 1
		}
		b.mu.Unlock()
		if progress != nil {
			progress(end, total)
		}
	}

	b.mu.Lock()
	b.scheduleLocked()
	b.mu.Unlock()
	return nil
}

// SearchItems runs a tokenized AND text search over name, description,
// and genres, optionally scoped to a category.
func (b *Backend) SearchItems(q, categoryID, mode string) ([]types.Item, error) {
	if err := b.checkReady(); err != nil {
		return nil, err
	}
	items := b.snapshotItems()

	out := b.dispatcher.DispatchWait(len(items), func() []types.Item {
		return query.Search(items, q, categoryID, mode)
	})
	if out == nil {
		out = []types.Item{}
	}
	return out, nil
}
