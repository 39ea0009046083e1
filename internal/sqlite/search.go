package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/curio/internal/query"
	"github.com/mesh-intelligence/curio/pkg/types"
)

// buildMatchQuery translates a free-text query into an FTS5 MATCH
// expression. Terms are lowercased with quote characters stripped. In
// prefix mode every term gets a wildcard suffix; in phrase mode the
// whole query becomes one quoted phrase. Terms join with implicit AND.
func buildMatchQuery(q, mode string) string {
	if mode == types.MatchPhrase {
		phrase := strings.ReplaceAll(strings.TrimSpace(q), `"`, "")
		if phrase == "" {
			return ""
		}
		return `"` + phrase + `"`
	}
	terms := query.Tokenize(q)
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted := `"` + strings.ReplaceAll(term, `"`, "") + `"`
		if mode == types.MatchPrefix {
			quoted += "*"
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

// SearchItems runs the query against the inverted index joined back to
// the base table, ordered by relevance rank, with the category filter
// applied afterward. Any indexed-search failure falls back to a plain
// substring scan across name/description/genres so search never
// hard-fails.
func (b *Backend) SearchItems(q, categoryID, mode string) ([]types.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkReadyLocked(); err != nil {
		return nil, err
	}

	match := buildMatchQuery(q, mode)
	if match == "" {
		return b.scanFallbackLocked(q, categoryID, mode)
	}

	sqlText := `SELECT ` + prefixColumns("i", itemColumns) + `
        FROM items_fts fts
        JOIN items i ON i.id = fts.rowid
        WHERE items_fts MATCH ?`
	args := []any{match}
	if categoryID != "" {
		sqlText += " AND i.category_id = ?"
		args = append(args, categoryID)
	}
	sqlText += " ORDER BY fts.rank"

	rows, err := b.db.Query(sqlText, args...)
	if err != nil {
		// Malformed MATCH expressions and other index errors recover via
		// the substring scan.
		b.logger.Warn("indexed search failed, falling back to scan", "query", q, "error", err)
		return b.scanFallbackLocked(q, categoryID, mode)
	}
	return collectItems(rows)
}

// scanFallbackLocked is the substring-scan path: it loads the
// (category-scoped) rows and applies the shared in-memory matcher.
func (b *Backend) scanFallbackLocked(q, categoryID, mode string) ([]types.Item, error) {
	where := ""
	var args []any
	if categoryID != "" {
		where = " WHERE category_id = ?"
		args = append(args, categoryID)
	}
	rows, err := b.db.Query("SELECT "+itemColumns+" FROM items"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("fallback scan: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	matched := query.Search(items, q, "", mode)
	if matched == nil {
		matched = []types.Item{}
	}
	return matched, nil
}

// prefixColumns qualifies a comma-separated column list with a table
// alias for joined queries.
func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i := range cols {
		cols[i] = alias + "." + strings.TrimSpace(cols[i])
	}
	return strings.Join(cols, ", ")
}
