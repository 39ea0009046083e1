package types

import "time"

// SchemaVersion is the current on-disk catalog format version.
const SchemaVersion = 2

// DefaultChunkSize is the logical capacity of one chunk file.
const DefaultChunkSize = 100000

// CatalogMeta is the authoritative record of catalog size and chunk
// layout. It is recomputed on every full save; after any successful full
// save, ChunkCount == ceil(TotalItems/ChunkSize).
type CatalogMeta struct {
	Version      int        `json:"version"`
	LastModified string     `json:"lastModified"`
	Categories   []Category `json:"categories"`
	TotalItems   int        `json:"totalItems"`
	ChunkCount   int        `json:"chunkCount"`
	ChunkSize    int        `json:"chunkSize"`
	// ChunkLengths caches the item count of each chunk so a partial chunk
	// update can recompute TotalItems without re-reading every other
	// chunk from disk.
	ChunkLengths []int `json:"chunkLengths,omitempty"`
}

// DefaultMeta returns the meta record for an empty catalog.
func DefaultMeta(chunkSize int) CatalogMeta {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return CatalogMeta{
		Version:      SchemaVersion,
		LastModified: time.Now().UTC().Format(time.RFC3339),
		Categories:   []Category{},
		ChunkSize:    chunkSize,
	}
}

// CatalogState is the full in-memory state of a catalog: every item plus
// the denormalized category list. It is the unit of LoadState/SaveState.
type CatalogState struct {
	Items      []Item     `json:"items"`
	Categories []Category `json:"categories"`
}

// Clone returns a deep-enough copy for handing the state to a background
// writer: the slices are copied, the records themselves are treated as
// immutable once scheduled.
func (s CatalogState) Clone() CatalogState {
	out := CatalogState{
		Items:      make([]Item, len(s.Items)),
		Categories: make([]Category, len(s.Categories)),
	}
	copy(out.Items, s.Items)
	copy(out.Categories, s.Categories)
	return out
}

// ExportDocument is the interchange format for export/import and backup
// snapshots. Import always fully replaces the current state.
type ExportDocument struct {
	Version    int        `json:"version"`
	ExportDate string     `json:"exportDate"`
	Categories []Category `json:"categories"`
	Items      []Item     `json:"items"`
}

// Validate rejects documents missing required top-level fields before
// any write occurs.
func (d *ExportDocument) Validate() error {
	if d.Version == 0 {
		return ErrValidation
	}
	if d.Categories == nil || d.Items == nil {
		return ErrValidation
	}
	return nil
}

// NewExportDocument snapshots a catalog state as an interchange document.
func NewExportDocument(state CatalogState) ExportDocument {
	doc := ExportDocument{
		Version:    SchemaVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Categories: state.Categories,
		Items:      state.Items,
	}
	if doc.Categories == nil {
		doc.Categories = []Category{}
	}
	if doc.Items == nil {
		doc.Items = []Item{}
	}
	return doc
}
