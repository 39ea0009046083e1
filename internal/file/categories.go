package file

import (
	"fmt"

	"github.com/mesh-intelligence/curio/pkg/types"
)

// GetCategories returns the category list, ordered by OrderIndex among
// siblings as stored.
func (b *Backend) GetCategories() ([]types.Category, error) {
	if err := b.checkReady(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.Category, len(b.categories))
	copy(out, b.categories)
	return out, nil
}

// AddCategory validates and stores a new category, generating an ID when
// absent.
func (b *Backend) AddCategory(category types.Category) (string, error) {
	if err := b.checkReady(); err != nil {
		return "", err
	}
	if err := category.Validate(); err != nil {
		return "", err
	}
	if category.ID == "" {
		category.ID = newUUID()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.categories {
		if b.categories[i].ID == category.ID {
			return "", fmt.Errorf("%w: category %s", types.ErrInvalidData, category.ID)
		}
	}
	b.categories = append(b.categories, category)
	b.scheduleLocked()
	return category.ID, nil
}

// UpdateCategory replaces an existing category in place.
func (b *Backend) UpdateCategory(category types.Category) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	if category.ID == "" {
		return types.ErrInvalidID
	}
	if err := category.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.categories {
		if b.categories[i].ID == category.ID {
			b.categories[i] = category
			b.scheduleLocked()
			return nil
		}
	}
	return types.ErrNotFound
}

// DeleteCategory removes a category, every descendant category, and all
// items owned by any of them. Images of removed items are released.
func (b *Backend) DeleteCategory(id string) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	found := false
	for i := range b.categories {
		if b.categories[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		b.mu.Unlock()
		return types.ErrNotFound
	}

	subtree := types.BuildChildIndex(b.categories).SubtreeIDs(id)

	keptCats := b.categories[:0:0]
	for i := range b.categories {
		if !subtree[b.categories[i].ID] {
			keptCats = append(keptCats, b.categories[i])
		}
	}
	b.categories = keptCats

	keptItems := b.items[:0:0]
	var removed []string
	for i := range b.items {
		if subtree[b.items[i].CategoryID] {
			removed = append(removed, b.items[i].ID)
			continue
		}
		keptItems = append(keptItems, b.items[i])
	}
	b.items = keptItems
	b.reindexLocked()
	b.scheduleLocked()
	b.mu.Unlock()

	b.releaseImages(removed)
	return nil
}
