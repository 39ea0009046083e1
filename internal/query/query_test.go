package query

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/mesh-intelligence/curio/pkg/types"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func names(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		q    string
		want []string
	}{
		{name: "empty", q: "", want: []string{}},
		{name: "whitespace only", q: "   ", want: []string{}},
		{name: "lowercases", q: "Blade RUNNER", want: []string{"blade", "runner"}},
		{name: "strips quotes", q: `"dark" 'city'`, want: []string{"dark", "city"}},
		{name: "collapses spaces", q: "  a   b  ", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.q)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	items := []types.Item{
		{ID: "1", Name: "Blade Runner", Description: "a replicant hunter", CategoryID: "movies"},
		{ID: "2", Name: "Blade Runner 2049", Description: "sequel", CategoryID: "movies"},
		{ID: "3", Name: "Alien", Genres: []string{"scifi", "horror"}, CategoryID: "movies"},
		{ID: "4", Name: "Neuromancer", Description: "console cowboy", CategoryID: "books"},
	}

	tests := []struct {
		name       string
		q          string
		categoryID string
		mode       string
		want       []string
	}{
		{
			name: "single term matches name case-insensitively",
			q:    "blade",
			want: []string{"Blade Runner", "Blade Runner 2049"},
		},
		{
			name: "multiple terms are ANDed",
			q:    "blade 2049",
			want: []string{"Blade Runner 2049"},
		},
		{
			name: "term matches description",
			q:    "replicant",
			want: []string{"Blade Runner"},
		},
		{
			name: "term matches genres",
			q:    "horror",
			want: []string{"Alien"},
		},
		{
			name:       "category scope",
			q:          "blade",
			categoryID: "books",
			want:       []string{},
		},
		{
			name: "empty query matches all",
			q:    "",
			want: []string{"Blade Runner", "Blade Runner 2049", "Alien", "Neuromancer"},
		},
		{
			name: "phrase mode requires contiguous match",
			q:    "runner 2049",
			mode: types.MatchPhrase,
			want: []string{"Blade Runner 2049"},
		},
		{
			name: "phrase mode rejects scattered terms",
			q:    "blade cowboy",
			mode: types.MatchPhrase,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(Search(items, tt.q, tt.categoryID, tt.mode))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	items := []types.Item{
		{ID: "1", Name: "Alien", Year: intPtr(1979), Rating: floatPtr(8.5), Genres: []string{"horror"}, Watched: true, CategoryID: "movies"},
		{ID: "2", Name: "Arrival", Year: intPtr(2016), Rating: floatPtr(7.9), Genres: []string{"scifi"}, CategoryID: "movies"},
		{ID: "3", Name: "Dune", CategoryID: "books", CustomFieldValues: map[string]any{"format": "hardcover"}},
	}

	tests := []struct {
		name   string
		filter types.ItemFilter
		want   []string
	}{
		{name: "no constraints", filter: types.ItemFilter{}, want: []string{"Alien", "Arrival", "Dune"}},
		{name: "by category", filter: types.ItemFilter{CategoryID: "books"}, want: []string{"Dune"}},
		{name: "watched", filter: types.ItemFilter{Watched: boolPtr(true)}, want: []string{"Alien"}},
		{name: "year range excludes nil year", filter: types.ItemFilter{YearMin: intPtr(1970)}, want: []string{"Alien", "Arrival"}},
		{name: "year max", filter: types.ItemFilter{YearMax: intPtr(2000)}, want: []string{"Alien"}},
		{name: "rating min", filter: types.ItemFilter{RatingMin: floatPtr(8.0)}, want: []string{"Alien"}},
		{name: "genre case-insensitive", filter: types.ItemFilter{Genre: "Horror"}, want: []string{"Alien"}},
		{name: "free text", filter: types.ItemFilter{Query: "arr"}, want: []string{"Arrival"}},
		{name: "custom field equality", filter: types.ItemFilter{CustomField: map[string]any{"format": "hardcover"}}, want: []string{"Dune"}},
		{name: "custom field mismatch", filter: types.ItemFilter{CustomField: map[string]any{"format": "paperback"}}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(Filter(items, tt.filter))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_NullsLast(t *testing.T) {
	items := []types.Item{
		{Name: "NoYear"},
		{Name: "Old", Year: intPtr(1950)},
		{Name: "New", Year: intPtr(2020)},
	}

	asc := append([]types.Item(nil), items...)
	Sort(asc, types.SortSpec{Field: "year", Direction: types.SortAsc})
	if got := names(asc); !reflect.DeepEqual(got, []string{"Old", "New", "NoYear"}) {
		t.Errorf("asc = %v", got)
	}

	desc := append([]types.Item(nil), items...)
	Sort(desc, types.SortSpec{Field: "year", Direction: types.SortDesc})
	if got := names(desc); !reflect.DeepEqual(got, []string{"New", "Old", "NoYear"}) {
		t.Errorf("desc: absent values must still sort last, got %v", got)
	}
}

func TestSort_NameCaseInsensitive(t *testing.T) {
	items := []types.Item{
		{Name: "zebra"},
		{Name: "Apple"},
		{Name: "mango"},
	}
	Sort(items, types.SortSpec{Field: "name", Direction: types.SortAsc})
	if got := names(items); !reflect.DeepEqual(got, []string{"Apple", "mango", "zebra"}) {
		t.Errorf("got %v", got)
	}
}

func TestSort_StableOnEqualKeys(t *testing.T) {
	items := []types.Item{
		{ID: "a", Name: "Same", OrderIndex: 1},
		{ID: "b", Name: "Same", OrderIndex: 2},
		{ID: "c", Name: "Same", OrderIndex: 3},
	}
	Sort(items, types.SortSpec{Field: "name", Direction: types.SortAsc})
	if items[0].ID != "a" || items[1].ID != "b" || items[2].ID != "c" {
		t.Errorf("equal keys must keep input order, got %v %v %v", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestSort_EmptyFieldIsNoop(t *testing.T) {
	items := []types.Item{{Name: "b"}, {Name: "a"}}
	Sort(items, types.SortSpec{})
	if items[0].Name != "b" {
		t.Error("empty sort field must not reorder")
	}
}

func TestPaginate(t *testing.T) {
	items := make([]types.Item, 10)
	for i := range items {
		items[i].OrderIndex = i
	}

	tests := []struct {
		name      string
		page      types.Page
		wantFirst int
		wantLen   int
	}{
		{name: "zero size means all", page: types.Page{}, wantFirst: 0, wantLen: 10},
		{name: "first page", page: types.Page{Offset: 0, Size: 3}, wantFirst: 0, wantLen: 3},
		{name: "middle page", page: types.Page{Offset: 4, Size: 3}, wantFirst: 4, wantLen: 3},
		{name: "short last page", page: types.Page{Offset: 9, Size: 3}, wantFirst: 9, wantLen: 1},
		{name: "offset past end", page: types.Page{Offset: 100, Size: 3}, wantLen: 0},
		{name: "negative offset clamped", page: types.Page{Offset: -5, Size: 2}, wantFirst: 0, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(items, tt.page)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].OrderIndex != tt.wantFirst {
				t.Errorf("first = %d, want %d", got[0].OrderIndex, tt.wantFirst)
			}
		})
	}
}

func TestSort_ConcurrentSorts(t *testing.T) {
	base := []types.Item{{Name: "zebra"}, {Name: "Apple"}, {Name: "mango"}}
	want := []string{"Apple", "mango", "zebra"}

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 0; round < 200; round++ {
				items := make([]types.Item, len(base))
				copy(items, base)
				Sort(items, types.SortSpec{Field: "name", Direction: types.SortAsc})
				if !reflect.DeepEqual(names(items), want) {
					errs <- fmt.Sprintf("got %v, want %v", names(items), want)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestApply_FullReadPath(t *testing.T) {
	items := []types.Item{
		{Name: "C", Year: intPtr(2000), CategoryID: "m"},
		{Name: "A", Year: intPtr(2010), CategoryID: "m"},
		{Name: "B", Year: intPtr(2005), CategoryID: "m"},
		{Name: "X", Year: intPtr(2001), CategoryID: "other"},
	}

	got := Apply(items,
		types.ItemFilter{CategoryID: "m"},
		types.SortSpec{Field: "name", Direction: types.SortAsc},
		types.Page{Offset: 1, Size: 1},
	)
	if len(got) != 1 || got[0].Name != "B" {
		t.Errorf("Apply = %v, want [B]", names(got))
	}
}
