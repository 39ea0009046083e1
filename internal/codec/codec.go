// Package codec serializes catalog records to and from their storable
// byte form. Encoding is canonical JSON; decoding tolerates unknown
// fields from older or newer generations of the format, and normalizes
// absent optional collections so callers never see a partially-shaped
// record.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/curio/pkg/types"
)

// EncodeItem serializes an item.
func EncodeItem(item types.Item) ([]byte, error) {
	return json.Marshal(item)
}

// DecodeItem deserializes an item. Unknown fields are ignored; absent
// collections come back as empty rather than nil.
func DecodeItem(data []byte) (types.Item, error) {
	var item types.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return types.Item{}, fmt.Errorf("%w: item: %v", types.ErrDecode, err)
	}
	item.Normalize()
	return item, nil
}

// EncodeCategory serializes a category.
func EncodeCategory(category types.Category) ([]byte, error) {
	return json.Marshal(category)
}

// DecodeCategory deserializes a category, ignoring unknown fields.
func DecodeCategory(data []byte) (types.Category, error) {
	var category types.Category
	if err := json.Unmarshal(data, &category); err != nil {
		return types.Category{}, fmt.Errorf("%w: category: %v", types.ErrDecode, err)
	}
	if category.Fields == nil {
		category.Fields = []types.CustomFieldDefinition{}
	}
	return category, nil
}

// EncodeChunk serializes one chunk's item slice.
func EncodeChunk(items []types.Item) ([]byte, error) {
	if items == nil {
		items = []types.Item{}
	}
	return json.Marshal(items)
}

// DecodeChunk deserializes one chunk's item slice and normalizes each
// record.
func DecodeChunk(data []byte) ([]types.Item, error) {
	var items []types.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: chunk: %v", types.ErrDecode, err)
	}
	for i := range items {
		items[i].Normalize()
	}
	if items == nil {
		items = []types.Item{}
	}
	return items, nil
}

// EncodeMeta serializes a catalog meta record.
func EncodeMeta(meta types.CatalogMeta) ([]byte, error) {
	return json.Marshal(meta)
}

// DecodeMeta deserializes a catalog meta record.
func DecodeMeta(data []byte) (types.CatalogMeta, error) {
	var meta types.CatalogMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return types.CatalogMeta{}, fmt.Errorf("%w: meta: %v", types.ErrDecode, err)
	}
	if meta.Categories == nil {
		meta.Categories = []types.Category{}
	}
	if meta.ChunkSize <= 0 {
		meta.ChunkSize = types.DefaultChunkSize
	}
	return meta, nil
}

// EncodeDocument serializes an export document.
func EncodeDocument(doc types.ExportDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeDocument deserializes an export document, ignoring unknown
// fields. The document is not validated here; callers reject incomplete
// documents via Validate before writing anything.
func DecodeDocument(data []byte) (types.ExportDocument, error) {
	var doc types.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.ExportDocument{}, fmt.Errorf("%w: export document: %v", types.ErrDecode, err)
	}
	for i := range doc.Items {
		doc.Items[i].Normalize()
	}
	return doc, nil
}
