// Package query implements the in-memory filter, sort, text-match, and
// pagination path shared by the file backend and the indexed backend's
// substring fallback. All functions are pure over their inputs.
package query

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/curio/pkg/types"
)

// collators pools the case-insensitive, locale-aware comparators used by
// the sort contract. A collate.Collator carries internal iterator state
// and must not be shared across goroutines; each Sort checks one out for
// the duration of the call. Loose comparison ignores case, width, and
// diacritics.
var collators = sync.Pool{
	New: func() any { return collate.New(language.Und, collate.Loose) },
}

// Tokenize splits a free-text query into lowercase terms, stripping
// quote characters. Empty input yields no terms.
func Tokenize(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"'`)
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}

// haystack returns the lowercase searchable text of an item: name,
// description, and genres.
func haystack(it *types.Item) string {
	var b strings.Builder
	b.WriteString(it.Name)
	b.WriteByte(' ')
	b.WriteString(it.Description)
	for _, g := range it.Genres {
		b.WriteByte(' ')
		b.WriteString(g)
	}
	return strings.ToLower(b.String())
}

// MatchesTerms reports whether an item's name, description, or genres
// contain every term (implicit AND, case-insensitive substring).
func MatchesTerms(it *types.Item, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	hay := haystack(it)
	for _, term := range terms {
		if !strings.Contains(hay, term) {
			return false
		}
	}
	return true
}

// MatchesPhrase reports whether an item contains the whole query as one
// case-insensitive substring.
func MatchesPhrase(it *types.Item, phrase string) bool {
	phrase = strings.ToLower(strings.Trim(strings.TrimSpace(phrase), `"'`))
	if phrase == "" {
		return true
	}
	return strings.Contains(haystack(it), phrase)
}

// Search filters items by a text query in the given match mode, scoped
// to categoryID when non-empty. Prefix mode matches term prefixes the
// same way substring matching does for in-memory search; the indexed
// backend narrows this to token prefixes.
func Search(items []types.Item, q, categoryID, mode string) []types.Item {
	var out []types.Item
	terms := Tokenize(q)
	for i := range items {
		it := &items[i]
		if categoryID != "" && it.CategoryID != categoryID {
			continue
		}
		var ok bool
		if mode == types.MatchPhrase {
			ok = MatchesPhrase(it, q)
		} else {
			ok = MatchesTerms(it, terms)
		}
		if ok {
			out = append(out, *it)
		}
	}
	return out
}

// Filter applies an ItemFilter, returning the matching items in input
// order.
func Filter(items []types.Item, f types.ItemFilter) []types.Item {
	terms := Tokenize(f.Query)
	var out []types.Item
	for i := range items {
		it := &items[i]
		if f.CategoryID != "" && it.CategoryID != f.CategoryID {
			continue
		}
		if f.Watched != nil && it.Watched != *f.Watched {
			continue
		}
		if f.YearMin != nil && (it.Year == nil || *it.Year < *f.YearMin) {
			continue
		}
		if f.YearMax != nil && (it.Year == nil || *it.Year > *f.YearMax) {
			continue
		}
		if f.RatingMin != nil && (it.Rating == nil || *it.Rating < *f.RatingMin) {
			continue
		}
		if f.Genre != "" && !hasGenre(it, f.Genre) {
			continue
		}
		if !MatchesTerms(it, terms) {
			continue
		}
		if !matchesCustomFields(it, f.CustomField) {
			continue
		}
		out = append(out, *it)
	}
	return out
}

func hasGenre(it *types.Item, genre string) bool {
	for _, g := range it.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}

func matchesCustomFields(it *types.Item, want map[string]any) bool {
	for fieldID, wantValue := range want {
		got, ok := it.CustomFieldValues[fieldID]
		if !ok || got != wantValue {
			return false
		}
	}
	return true
}

// Sort orders items per the sort contract: absent values last regardless
// of direction, case-insensitive locale-aware strings, ordinal numerics.
// The sort is stable so equal keys keep their manual order.
func Sort(items []types.Item, spec types.SortSpec) {
	if spec.Field == "" {
		return
	}
	desc := spec.Direction == types.SortDesc
	col := collators.Get().(*collate.Collator)
	defer collators.Put(col)
	sort.SliceStable(items, func(i, j int) bool {
		c, iNull, jNull := compareField(col, &items[i], &items[j], spec.Field)
		// Nulls sort last in both directions.
		if iNull != jNull {
			return jNull
		}
		if iNull && jNull {
			return false
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// compareField compares one sort field of two items, reporting whether
// either side is absent.
func compareField(col *collate.Collator, a, b *types.Item, field string) (c int, aNull, bNull bool) {
	switch field {
	case "name":
		return col.CompareString(a.Name, b.Name), false, false
	case "year":
		if a.Year == nil || b.Year == nil {
			return 0, a.Year == nil, b.Year == nil
		}
		return compareInt(*a.Year, *b.Year), false, false
	case "rating":
		if a.Rating == nil || b.Rating == nil {
			return 0, a.Rating == nil, b.Rating == nil
		}
		return compareFloat(*a.Rating, *b.Rating), false, false
	case "addedDate":
		if a.AddedDate == "" || b.AddedDate == "" {
			return 0, a.AddedDate == "", b.AddedDate == ""
		}
		return strings.Compare(a.AddedDate, b.AddedDate), false, false
	case "orderIndex":
		return compareInt(a.OrderIndex, b.OrderIndex), false, false
	default:
		return 0, false, false
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Paginate slices a result list. A zero page size means no limit.
func Paginate(items []types.Item, page types.Page) []types.Item {
	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Offset >= len(items) {
		return []types.Item{}
	}
	items = items[page.Offset:]
	if page.Size > 0 && page.Size < len(items) {
		items = items[:page.Size]
	}
	return items
}

// Apply runs the full read path: filter, sort, paginate.
func Apply(items []types.Item, f types.ItemFilter, spec types.SortSpec, page types.Page) []types.Item {
	out := Filter(items, f)
	Sort(out, spec)
	return Paginate(out, page)
}
