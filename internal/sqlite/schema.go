// Package sqlite implements the indexed storage backend on an embedded
// SQLite database. Base tables hold one row per entity; an FTS5 shadow
// table over (name, description, genres) is kept consistent by
// insert/update/delete triggers and is never written by callers.
package sqlite

// Schema DDL for the base tables.
const (
	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    category_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    parent_id TEXT,
    order_index INTEGER NOT NULL DEFAULT 0,
    icon TEXT,
    fields TEXT NOT NULL DEFAULT '[]',
    field_visibility TEXT
);`

	createItems = `CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    year INTEGER,
    rating REAL,
    genres TEXT NOT NULL DEFAULT '[]',
    description TEXT NOT NULL DEFAULT '',
    category_id TEXT NOT NULL,
    path TEXT NOT NULL DEFAULT '',
    added_date TEXT NOT NULL,
    cover_ref TEXT,
    order_index INTEGER NOT NULL DEFAULT 0,
    season INTEGER,
    episode INTEGER,
    watched INTEGER NOT NULL DEFAULT 0,
    custom_values TEXT
);`
)

// Secondary indexes for the dominant query shapes.
const (
	idxItemsCategory       = `CREATE INDEX IF NOT EXISTS idx_items_category ON items(category_id);`
	idxItemsName           = `CREATE INDEX IF NOT EXISTS idx_items_name ON items(name COLLATE NOCASE);`
	idxItemsYear           = `CREATE INDEX IF NOT EXISTS idx_items_year ON items(year);`
	idxItemsRating         = `CREATE INDEX IF NOT EXISTS idx_items_rating ON items(rating);`
	idxItemsAdded          = `CREATE INDEX IF NOT EXISTS idx_items_added ON items(added_date);`
	idxItemsOrder          = `CREATE INDEX IF NOT EXISTS idx_items_order ON items(order_index);`
	idxItemsCategoryName   = `CREATE INDEX IF NOT EXISTS idx_items_category_name ON items(category_id, name COLLATE NOCASE);`
	idxItemsCategoryYear   = `CREATE INDEX IF NOT EXISTS idx_items_category_year ON items(category_id, year);`
	idxItemsCategoryRating = `CREATE INDEX IF NOT EXISTS idx_items_category_rating ON items(category_id, rating);`
	idxCategoriesParent    = `CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id);`
)

// Full-text shadow table and the triggers that keep it synchronized with
// the base table.
const (
	createItemsFTS = `CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
    name,
    description,
    genres,
    content='items',
    content_rowid='id'
);`

	trgItemsInsert = `CREATE TRIGGER IF NOT EXISTS items_fts_insert AFTER INSERT ON items BEGIN
    INSERT INTO items_fts(rowid, name, description, genres)
    VALUES (new.id, new.name, new.description, new.genres);
END;`

	trgItemsDelete = `CREATE TRIGGER IF NOT EXISTS items_fts_delete AFTER DELETE ON items BEGIN
    INSERT INTO items_fts(items_fts, rowid, name, description, genres)
    VALUES ('delete', old.id, old.name, old.description, old.genres);
END;`

	trgItemsUpdate = `CREATE TRIGGER IF NOT EXISTS items_fts_update AFTER UPDATE ON items BEGIN
    INSERT INTO items_fts(items_fts, rowid, name, description, genres)
    VALUES ('delete', old.id, old.name, old.description, old.genres);
    INSERT INTO items_fts(rowid, name, description, genres)
    VALUES (new.id, new.name, new.description, new.genres);
END;`
)

// schemaDDL lists every statement executed on Init, in dependency order.
var schemaDDL = []string{
	createCategories,
	createItems,
	idxItemsCategory,
	idxItemsName,
	idxItemsYear,
	idxItemsRating,
	idxItemsAdded,
	idxItemsOrder,
	idxItemsCategoryName,
	idxItemsCategoryYear,
	idxItemsCategoryRating,
	idxCategoriesParent,
	createItemsFTS,
	trgItemsInsert,
	trgItemsDelete,
	trgItemsUpdate,
}
