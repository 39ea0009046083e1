package chunkstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/curio/internal/codec"
	"github.com/mesh-intelligence/curio/pkg/types"
)

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Export aggregates the full catalog into one interchange document.
func (s *Store) Export() (types.ExportDocument, error) {
	meta, err := s.LoadMeta()
	if err != nil {
		return types.ExportDocument{}, err
	}
	items, err := s.LoadAll()
	if err != nil {
		return types.ExportDocument{}, err
	}
	return types.NewExportDocument(types.CatalogState{
		Items:      items,
		Categories: meta.Categories,
	}), nil
}

// Import validates the document and fully replaces the current state,
// funneling through SaveAll. Nothing is written when validation fails.
func (s *Store) Import(doc types.ExportDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	meta, err := s.LoadMeta()
	if err != nil {
		return err
	}
	meta.Categories = doc.Categories
	return s.SaveAll(doc.Items, meta)
}

// Backup snapshots the current aggregated state to a timestamped
// document file beside the live chunks and returns the written path.
func (s *Store) Backup() (string, error) {
	doc, err := s.Export()
	if err != nil {
		return "", err
	}
	data, err := codec.EncodeDocument(doc)
	if err != nil {
		return "", fmt.Errorf("encoding backup: %w", err)
	}
	name := fmt.Sprintf("backup-%s.json", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(s.dir, name)
	if err := s.writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// StorageBytes sums the on-disk size of the meta file and every chunk.
func (s *Store) StorageBytes() int64 {
	var total int64
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if info, err := e.Info(); err == nil && !e.IsDir() {
			total += info.Size()
		}
	}
	return total
}
