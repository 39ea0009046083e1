package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/curio/internal/query"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// itemColumns is the column list for item hydration, matching scanItem.
const itemColumns = `item_id, name, year, rating, genres, description, category_id,
    path, added_date, cover_ref, order_index, season, episode, watched, custom_values`

// rowScanner abstracts *sql.Row and *sql.Rows for hydration.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem hydrates one item row.
func scanItem(row rowScanner) (types.Item, error) {
	var (
		it           types.Item
		year         sql.NullInt64
		rating       sql.NullFloat64
		genres       string
		coverRef     sql.NullString
		season       sql.NullInt64
		episode      sql.NullInt64
		watched      int
		customValues sql.NullString
	)
	err := row.Scan(&it.ID, &it.Name, &year, &rating, &genres, &it.Description,
		&it.CategoryID, &it.Path, &it.AddedDate, &coverRef, &it.OrderIndex,
		&season, &episode, &watched, &customValues)
	if err != nil {
		return types.Item{}, err
	}
	if year.Valid {
		v := int(year.Int64)
		it.Year = &v
	}
	if rating.Valid {
		v := rating.Float64
		it.Rating = &v
	}
	if coverRef.Valid {
		v := coverRef.String
		it.CoverRef = &v
	}
	if season.Valid {
		v := int(season.Int64)
		it.Season = &v
	}
	if episode.Valid {
		v := int(episode.Int64)
		it.Episode = &v
	}
	it.Watched = watched != 0
	if err := json.Unmarshal([]byte(genres), &it.Genres); err != nil {
		it.Genres = []string{}
	}
	if customValues.Valid && customValues.String != "" {
		if err := json.Unmarshal([]byte(customValues.String), &it.CustomFieldValues); err != nil {
			it.CustomFieldValues = map[string]any{}
		}
	}
	it.Normalize()
	return it, nil
}

// itemArgs dehydrates an item into the column order of itemColumns.
func itemArgs(it *types.Item) ([]any, error) {
	genres, err := json.Marshal(it.Genres)
	if err != nil {
		return nil, fmt.Errorf("encoding genres: %w", err)
	}
	var customValues any
	if len(it.CustomFieldValues) > 0 {
		data, err := json.Marshal(it.CustomFieldValues)
		if err != nil {
			return nil, fmt.Errorf("encoding custom values: %w", err)
		}
		customValues = string(data)
	}
	watched := 0
	if it.Watched {
		watched = 1
	}
	return []any{
		it.ID, it.Name, nullableInt(it.Year), nullableFloat(it.Rating),
		string(genres), it.Description, it.CategoryID, it.Path, it.AddedDate,
		nullableString(it.CoverRef), it.OrderIndex, nullableInt(it.Season),
		nullableInt(it.Episode), watched, customValues,
	}, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

const insertItemSQL = `INSERT INTO items (` + itemColumns + `)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateItemSQL = `UPDATE items SET name = ?, year = ?, rating = ?, genres = ?,
    description = ?, category_id = ?, path = ?, added_date = ?, cover_ref = ?,
    order_index = ?, season = ?, episode = ?, watched = ?, custom_values = ?
    WHERE item_id = ?`

// GetItems applies the filter's indexed predicates in SQL, then runs the
// free-text and custom-field predicates, the locale-aware sort, and
// pagination in memory, sharing the exact semantics of the file backend.
func (b *Backend) GetItems(filter types.ItemFilter, sort types.SortSpec, page types.Page) ([]types.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkReadyLocked(); err != nil {
		return nil, err
	}

	where, args := buildItemWhere(filter)
	rows, err := b.db.Query("SELECT "+itemColumns+" FROM items"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}

	// Residual predicates SQL does not cover.
	residual := types.ItemFilter{Query: filter.Query, CustomField: filter.CustomField, Genre: filter.Genre}
	items = query.Filter(items, residual)
	query.Sort(items, sort)
	return query.Paginate(items, page), nil
}

// buildItemWhere translates the indexed predicates of a filter into a
// WHERE clause.
func buildItemWhere(filter types.ItemFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.CategoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Watched != nil {
		conds = append(conds, "watched = ?")
		if *filter.Watched {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if filter.YearMin != nil {
		conds = append(conds, "year >= ?")
		args = append(args, *filter.YearMin)
	}
	if filter.YearMax != nil {
		conds = append(conds, "year <= ?")
		args = append(args, *filter.YearMax)
	}
	if filter.RatingMin != nil {
		conds = append(conds, "rating >= ?")
		args = append(args, *filter.RatingMin)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func collectItems(rows *sql.Rows) ([]types.Item, error) {
	defer rows.Close()
	items := []types.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItemByID returns the item or nil when absent; absence is not an
// error.
func (b *Backend) GetItemByID(id string) (*types.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkReadyLocked(); err != nil {
		return nil, err
	}
	row := b.db.QueryRow("SELECT "+itemColumns+" FROM items WHERE item_id = ?", id)
	it, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting item %s: %w", id, err)
	}
	return &it, nil
}

// GetItemCount counts all items, or those in one category.
func (b *Backend) GetItemCount(categoryID string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkReadyLocked(); err != nil {
		return 0, err
	}
	var n int
	var err error
	if categoryID == "" {
		err = b.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n)
	} else {
		err = b.db.QueryRow("SELECT COUNT(*) FROM items WHERE category_id = ?", categoryID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// AddItem validates and inserts a new item, generating an ID when
// absent.
func (b *Backend) AddItem(item types.Item) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return "", err
	}
	if err := item.Validate(); err != nil {
		return "", err
	}
	item.Normalize()
	if item.ID == "" {
		item.ID = newUUID()
	}
	args, err := itemArgs(&item)
	if err != nil {
		return "", err
	}
	if _, err := b.db.Exec(insertItemSQL, args...); err != nil {
		return "", fmt.Errorf("inserting item: %w", err)
	}
	return item.ID, nil
}

// UpdateItem replaces an existing item row; the FTS triggers resync the
// shadow table.
func (b *Backend) UpdateItem(item types.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	if item.ID == "" {
		return types.ErrInvalidID
	}
	if err := item.Validate(); err != nil {
		return err
	}
	item.Normalize()
	args, err := itemArgs(&item)
	if err != nil {
		return err
	}
	// itemArgs puts item_id first; UPDATE wants it last.
	args = append(args[1:], item.ID)
	res, err := b.db.Exec(updateItemSQL, args...)
	if err != nil {
		return fmt.Errorf("updating item %s: %w", item.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DeleteItems removes the given items and releases their stored images.
// Unknown IDs are skipped silently.
func (b *Backend) DeleteItems(ids []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("DELETE FROM items WHERE item_id = ?")
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.Exec(id); err != nil {
			return fmt.Errorf("deleting item %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	b.releaseImages(ids)
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

// AddItemsBatch inserts items in groups of batchGroupSize, one
// transaction per group, reporting cumulative progress after each
// commit. On error the open group rolls back and the error propagates;
// rows committed in prior groups remain.
func (b *Backend) AddItemsBatch(items []types.Item, progress types.ProgressFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkReadyLocked(); err != nil {
		return err
	}
	return b.insertGroupsLocked(items, progress)
}

// insertGroupsLocked is the grouped-transaction insert loop shared by
// AddItemsBatch and ImportData. Caller holds b.mu.
func (b *Backend) insertGroupsLocked(items []types.Item, progress types.ProgressFunc) error {
	total := len(items)
	for start := 0; start < total; start += batchGroupSize {
		end := start + batchGroupSize
		if end > total {
			end = total
		}
		if err := b.insertGroup(items[start:end]); err != nil {
			return fmt.Errorf("batch group at %d: %w", start, err)
		}
		if progress != nil {
			progress(end, total)
		}
	}
	return nil
}

// insertGroup inserts one group inside a single transaction.
func (b *Backend) insertGroup(group []types.Item) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertItemSQL)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range group {
		item := group[i]
		if err := item.Validate(); err != nil {
			return err
		}
		item.Normalize()
		if item.ID == "" {
			item.ID = newUUID()
		}
		args, err := itemArgs(&item)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting item %s: %w", item.ID, err)
		}
	}
	return tx.Commit()
}
