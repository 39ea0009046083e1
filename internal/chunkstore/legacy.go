package chunkstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/curio/internal/codec"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// legacyFileName is the monolithic single-file catalog written by older
// generations of the format.
const legacyFileName = "catalog.json"

// legacyBackupSuffix marks a monolithic file that has been split into
// chunks. The original is moved aside, never deleted outright.
const legacyBackupSuffix = ".bak"

// LegacyPath returns the location of the monolithic catalog file.
func (s *Store) LegacyPath() string {
	return filepath.Join(s.dir, legacyFileName)
}

// HasLegacy reports whether a monolithic catalog file exists and no
// chunked meta has been written yet.
func (s *Store) HasLegacy() bool {
	if _, err := os.Stat(s.metaPath()); err == nil {
		return false
	}
	_, err := os.Stat(s.LegacyPath())
	return err == nil
}

// SplitLegacy splits a monolithic catalog file into chunks of the
// configured size, writes the meta record, then moves the monolithic
// file aside as a backup. Safe to call when no legacy file exists.
func (s *Store) SplitLegacy() error {
	if !s.HasLegacy() {
		return nil
	}
	data, err := os.ReadFile(s.LegacyPath())
	if err != nil {
		return fmt.Errorf("reading legacy catalog: %w", err)
	}
	doc, err := codec.DecodeDocument(data)
	if err != nil {
		return err
	}
	meta := types.DefaultMeta(s.chunkSize)
	meta.Categories = doc.Categories
	if meta.Categories == nil {
		meta.Categories = []types.Category{}
	}
	if err := s.SaveAll(doc.Items, meta); err != nil {
		return err
	}
	backup := s.LegacyPath() + legacyBackupSuffix
	if err := os.Rename(s.LegacyPath(), backup); err != nil {
		return fmt.Errorf("moving legacy catalog aside: %w", err)
	}
	s.logger.Info("split legacy catalog into chunks",
		"items", len(doc.Items), "chunks", (len(doc.Items)+s.chunkSize-1)/s.chunkSize, "backup", backup)
	return nil
}
