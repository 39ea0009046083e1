package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/curio/pkg/types"
)

const categoryColumns = `category_id, name, parent_id, order_index, icon, fields, field_visibility`

// scanCategory hydrates one category row.
func scanCategory(row rowScanner) (types.Category, error) {
	var (
		c          types.Category
		parentID   sql.NullString
		icon       sql.NullString
		fields     string
		visibility sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &parentID, &c.OrderIndex, &icon, &fields, &visibility)
	if err != nil {
		return types.Category{}, err
	}
	if parentID.Valid {
		v := parentID.String
		c.ParentID = &v
	}
	if icon.Valid {
		v := icon.String
		c.Icon = &v
	}
	if err := json.Unmarshal([]byte(fields), &c.Fields); err != nil {
		c.Fields = []types.CustomFieldDefinition{}
	}
	if visibility.Valid && visibility.String != "" {
		if err := json.Unmarshal([]byte(visibility.String), &c.FieldVisibility); err != nil {
			c.FieldVisibility = nil
		}
	}
	return c, nil
}

// categoryArgs dehydrates a category into the column order of
// categoryColumns.
func categoryArgs(c *types.Category) ([]any, error) {
	fields := c.Fields
	if fields == nil {
		fields = []types.CustomFieldDefinition{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	var visibility any
	if len(c.FieldVisibility) > 0 {
		data, err := json.Marshal(c.FieldVisibility)
		if err != nil {
			return nil, fmt.Errorf("encoding field visibility: %w", err)
		}
		visibility = string(data)
	}
	return []any{
		c.ID, c.Name, nullableString(c.ParentID), c.OrderIndex,
		nullableString(c.Icon), string(fieldsJSON), visibility,
	}, nil
}

const insertCategorySQL = `INSERT INTO categories (` + categoryColumns + `)
    VALUES (?, ?, ?, ?, ?, ?, ?)`

// GetCategories returns every category ordered by sibling OrderIndex.
func (b *Backend) GetCategories() ([]types.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkReadyLocked(); err != nil {
		return nil, err
	}
	return b.loadCategoriesLocked()
}

func (b *Backend) loadCategoriesLocked() ([]types.Category, error) {
	rows, err := b.db.Query("SELECT " + categoryColumns + " FROM categories ORDER BY order_index, name COLLATE NOCASE")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()
	out := []types.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddCategory validates and inserts a new category, generating an ID
// when absent.
func (b *Backend) AddCategory(category types.Category) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return "", err
	}
	if err := category.Validate(); err != nil {
		return "", err
	}
	if category.ID == "" {
		category.ID = newUUID()
	}
	args, err := categoryArgs(&category)
	if err != nil {
		return "", err
	}
	if _, err := b.db.Exec(insertCategorySQL, args...); err != nil {
		return "", fmt.Errorf("inserting category: %w", err)
	}
	return category.ID, nil
}

// UpdateCategory replaces an existing category row.
func (b *Backend) UpdateCategory(category types.Category) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	if category.ID == "" {
		return types.ErrInvalidID
	}
	if err := category.Validate(); err != nil {
		return err
	}
	args, err := categoryArgs(&category)
	if err != nil {
		return err
	}
	args = append(args[1:], category.ID)
	res, err := b.db.Exec(`UPDATE categories SET name = ?, parent_id = ?, order_index = ?,
        icon = ?, fields = ?, field_visibility = ? WHERE category_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating category %s: %w", category.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category, every descendant category, and all
// items owned by any of them, in one transaction. Images of removed
// items are released after commit.
func (b *Backend) DeleteCategory(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}

	categories, err := b.loadCategoriesLocked()
	if err != nil {
		return err
	}
	found := false
	for i := range categories {
		if categories[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		return types.ErrNotFound
	}
	subtree := types.BuildChildIndex(categories).SubtreeIDs(id)

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning cascade transaction: %w", err)
	}
	defer tx.Rollback()

	// Collect item IDs first so images can be released after commit.
	var itemIDs []string
	for catID := range subtree {
		rows, err := tx.Query("SELECT item_id FROM items WHERE category_id = ?", catID)
		if err != nil {
			return fmt.Errorf("listing items of %s: %w", catID, err)
		}
		for rows.Next() {
			var itemID string
			if err := rows.Scan(&itemID); err != nil {
				rows.Close()
				return err
			}
			itemIDs = append(itemIDs, itemID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}

	for catID := range subtree {
		if _, err := tx.Exec("DELETE FROM items WHERE category_id = ?", catID); err != nil {
			return fmt.Errorf("deleting items of %s: %w", catID, err)
		}
		if _, err := tx.Exec("DELETE FROM categories WHERE category_id = ?", catID); err != nil {
			return fmt.Errorf("deleting category %s: %w", catID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cascade: %w", err)
	}
	b.releaseImages(itemIDs)
	return nil
}
