package types

// ImageStore is the collaborator contract for cover art keyed by item ID.
// The core calls Delete when an item or its owning category is removed,
// and never otherwise touches image bytes.
type ImageStore interface {
	// Save stores image bytes for an item and returns the stored paths.
	Save(id string, data []byte) ([]string, error)
	// Load returns a locator for an item's image, or empty when none
	// exists. thumbnail selects the reduced variant.
	Load(id string, thumbnail bool) (string, error)
	// Delete removes all stored images for an item.
	Delete(id string) error
}

// NoopImageStore satisfies ImageStore for embedders that do not manage
// cover art.
type NoopImageStore struct{}

func (NoopImageStore) Save(string, []byte) ([]string, error) { return nil, nil }
func (NoopImageStore) Load(string, bool) (string, error)     { return "", nil }
func (NoopImageStore) Delete(string) error                   { return nil }
