package file

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mesh-intelligence/curio/pkg/types"
)

// trackingImages records deleted image IDs.
type trackingImages struct {
	mu      sync.Mutex
	deleted []string
}

func (t *trackingImages) Save(id string, data []byte) ([]string, error) { return nil, nil }
func (t *trackingImages) Load(id string, thumbnail bool) (string, error) {
	return "", nil
}
func (t *trackingImages) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted = append(t.deleted, id)
	return nil
}

func (t *trackingImages) deletedIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.deleted...)
}

func testConfig(dir string) types.Config {
	return types.Config{
		Backend:        types.BackendFile,
		DataDir:        dir,
		ChunkSize:      10,
		DebounceMillis: 1, // near-immediate persistence for tests
	}
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(testConfig(t.TempDir()))
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	b := New(testConfig(dir))
	if b.IsReady() {
		t.Error("not ready before Init")
	}
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !b.IsReady() {
		t.Error("ready after Init")
	}
	if err := b.Init(); !errors.Is(err, types.ErrAlreadyOpen) {
		t.Errorf("second Init = %v, want ErrAlreadyOpen", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := b.GetItemByID("x"); !errors.Is(err, types.ErrAdapterClosed) {
		t.Errorf("operations after Close = %v, want ErrAdapterClosed", err)
	}
}

func TestInit_RejectsBadConfig(t *testing.T) {
	b := New(types.Config{Backend: "nope"})
	if err := b.Init(); err == nil {
		t.Error("invalid config must fail Init")
	}
}

func TestItemCRUD(t *testing.T) {
	b := newTestBackend(t)

	id, err := b.AddItem(types.Item{Name: "Blade Runner", CategoryID: "movies"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if id == "" {
		t.Fatal("AddItem must generate an ID")
	}

	got, err := b.GetItemByID(id)
	if err != nil {
		t.Fatalf("GetItemByID: %v", err)
	}
	if got == nil || got.Name != "Blade Runner" {
		t.Fatalf("got %+v", got)
	}
	if got.Genres == nil || got.AddedDate == "" {
		t.Error("stored item must be normalized")
	}

	got.Name = "Blade Runner (Final Cut)"
	if err := b.UpdateItem(*got); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	got2, _ := b.GetItemByID(id)
	if got2.Name != "Blade Runner (Final Cut)" {
		t.Errorf("update not applied: %q", got2.Name)
	}

	if err := b.DeleteItems([]string{id}); err != nil {
		t.Fatalf("DeleteItems: %v", err)
	}
	got3, err := b.GetItemByID(id)
	if err != nil || got3 != nil {
		t.Errorf("deleted item should be absent, got %+v, %v", got3, err)
	}
}

func TestAddItem_Validation(t *testing.T) {
	b := newTestBackend(t)

	if _, err := b.AddItem(types.Item{}); !errors.Is(err, types.ErrInvalidData) {
		t.Errorf("nameless item = %v, want ErrInvalidData", err)
	}

	id, _ := b.AddItem(types.Item{Name: "x"})
	if _, err := b.AddItem(types.Item{ID: id, Name: "dup"}); !errors.Is(err, types.ErrInvalidData) {
		t.Errorf("duplicate ID = %v, want ErrInvalidData", err)
	}
}

func TestUpdateItem_NotFound(t *testing.T) {
	b := newTestBackend(t)
	err := b.UpdateItem(types.Item{ID: "ghost", Name: "x"})
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if err := b.UpdateItem(types.Item{Name: "x"}); !errors.Is(err, types.ErrInvalidID) {
		t.Errorf("empty ID = %v, want ErrInvalidID", err)
	}
}

func TestDeleteItems_UnknownIDsSkipped(t *testing.T) {
	b := newTestBackend(t)
	id, _ := b.AddItem(types.Item{Name: "keep"})
	if err := b.DeleteItems([]string{"ghost-1", "ghost-2"}); err != nil {
		t.Fatalf("DeleteItems: %v", err)
	}
	if got, _ := b.GetItemByID(id); got == nil {
		t.Error("unrelated item must survive")
	}
}

func TestDeleteItems_ReleasesImages(t *testing.T) {
	images := &trackingImages{}
	b := New(testConfig(t.TempDir()), WithImageStore(images))
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer b.Close()

	id, _ := b.AddItem(types.Item{Name: "with cover"})
	if err := b.DeleteItems([]string{id}); err != nil {
		t.Fatalf("DeleteItems: %v", err)
	}
	deleted := images.deletedIDs()
	if len(deleted) != 1 || deleted[0] != id {
		t.Errorf("image release = %v, want [%s]", deleted, id)
	}
}

func TestGetItems_FilterSortPage(t *testing.T) {
	b := newTestBackend(t)
	for i := 0; i < 5; i++ {
		year := 2000 + i
		_, err := b.AddItem(types.Item{
			Name:       fmt.Sprintf("movie-%d", 4-i), // reverse-alpha insertion
			Year:       &year,
			CategoryID: "movies",
		})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}
	b.AddItem(types.Item{Name: "book", CategoryID: "books"})

	items, err := b.GetItems(
		types.ItemFilter{CategoryID: "movies"},
		types.SortSpec{Field: "name", Direction: types.SortAsc},
		types.Page{Offset: 1, Size: 2},
	)
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Name != "movie-1" || items[1].Name != "movie-2" {
		t.Errorf("page = %s, %s", items[0].Name, items[1].Name)
	}

	n, err := b.GetItemCount("movies")
	if err != nil || n != 5 {
		t.Errorf("GetItemCount(movies) = %d, %v", n, err)
	}
	n, _ = b.GetItemCount("")
	if n != 6 {
		t.Errorf("GetItemCount() = %d, want 6", n)
	}
}

func TestSearchItems(t *testing.T) {
	b := newTestBackend(t)
	b.AddItem(types.Item{Name: "Blade Runner", Description: "replicants", CategoryID: "movies"})
	b.AddItem(types.Item{Name: "Neuromancer", Genres: []string{"cyberpunk"}, CategoryID: "books"})

	items, err := b.SearchItems("blade", "", types.MatchPrefix)
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Blade Runner" {
		t.Errorf("got %+v", items)
	}

	items, _ = b.SearchItems("cyberpunk", "", types.MatchPrefix)
	if len(items) != 1 || items[0].Name != "Neuromancer" {
		t.Errorf("genre search got %+v", items)
	}

	items, _ = b.SearchItems("blade", "books", types.MatchPrefix)
	if len(items) != 0 {
		t.Errorf("category-scoped search got %+v", items)
	}
}

func TestAddItemsBatch_ProgressPerGroup(t *testing.T) {
	b := newTestBackend(t)

	items := make([]types.Item, 2500)
	for i := range items {
		items[i] = types.Item{Name: fmt.Sprintf("item-%04d", i)}
	}

	var calls [][2]int
	err := b.AddItemsBatch(items, func(processed, total int) {
		calls = append(calls, [2]int{processed, total})
	})
	if err != nil {
		t.Fatalf("AddItemsBatch: %v", err)
	}

	want := [][2]int{{1000, 2500}, {2000, 2500}, {2500, 2500}}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}

	n, _ := b.GetItemCount("")
	if n != 2500 {
		t.Errorf("count = %d, want 2500", n)
	}
}

func TestAddItemsBatch_InvalidItemAborts(t *testing.T) {
	b := newTestBackend(t)
	items := []types.Item{{Name: "ok"}, {}, {Name: "never reached"}}
	err := b.AddItemsBatch(items, nil)
	if !errors.Is(err, types.ErrInvalidData) {
		t.Fatalf("got %v, want ErrInvalidData", err)
	}
}

func TestAddItemsBatch_FailedGroupNotApplied(t *testing.T) {
	b := newTestBackend(t)

	items := make([]types.Item, 1500)
	for i := range items {
		items[i] = types.Item{Name: fmt.Sprintf("item-%04d", i)}
	}
	items[1100].ID = "staged-1100"
	items[1200] = types.Item{} // fails validation inside the second group

	if err := b.AddItemsBatch(items, nil); err == nil {
		t.Fatal("expected validation error")
	}

	// The first group is committed; the failed group leaves no partial
	// state behind.
	n, _ := b.GetItemCount("")
	if n != 1000 {
		t.Errorf("count = %d, want 1000", n)
	}
	if got, _ := b.GetItemByID("staged-1100"); got != nil {
		t.Errorf("partial group item survived: %+v", got)
	}
}

// newLargeBackend seeds enough items to push reads onto the dispatcher
// worker.
func newLargeBackend(t *testing.T, n int) *Backend {
	t.Helper()
	cfg := types.Config{
		Backend:        types.BackendFile,
		DataDir:        t.TempDir(),
		ChunkSize:      5000,
		DebounceMillis: 60000, // keep disk writes out of the hot loop
	}
	b := New(cfg)
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	items := make([]types.Item, n)
	for i := range items {
		items[i] = types.Item{Name: fmt.Sprintf("item-%05d", i)}
	}
	if err := b.AddItemsBatch(items, nil); err != nil {
		t.Fatalf("AddItemsBatch: %v", err)
	}
	return b
}

func TestGetItems_ConcurrentReadsReturnFullResults(t *testing.T) {
	b := newLargeBackend(t, 12000)

	var wg sync.WaitGroup
	errs := make(chan string, 60)
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 0; round < 30; round++ {
				got, err := b.GetItems(types.ItemFilter{}, types.SortSpec{}, types.Page{})
				if err != nil {
					errs <- err.Error()
					return
				}
				if len(got) != 12000 {
					errs <- fmt.Sprintf("got %d items, want 12000", len(got))
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

func TestGetItems_ConsistentUnderConcurrentUpdates(t *testing.T) {
	b := newLargeBackend(t, 12000)

	hot := types.Item{ID: "hot", Name: "v-0", Description: "v-0", CategoryID: "watchlist"}
	if _, err := b.AddItem(hot); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for v := 1; ; v++ {
			select {
			case <-stop:
				return
			default:
			}
			it := hot
			tag := fmt.Sprintf("v-%d", v)
			it.Name = tag
			it.Description = tag
			if err := b.UpdateItem(it); err != nil {
				return
			}
		}
	}()
	defer wg.Wait()
	defer close(stop)

	// Name and description always change together, so a read that ever
	// sees them disagree has observed a torn item.
	for round := 0; round < 50; round++ {
		got, err := b.GetItems(types.ItemFilter{CategoryID: "watchlist"}, types.SortSpec{}, types.Page{})
		if err != nil {
			t.Fatalf("GetItems: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d items, want 1", len(got))
		}
		if got[0].Name != got[0].Description {
			t.Fatalf("torn read: name %q, description %q", got[0].Name, got[0].Description)
		}
	}
}

func TestCategoryCRUD(t *testing.T) {
	b := newTestBackend(t)

	id, err := b.AddCategory(types.Category{Name: "Movies"})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	cats, _ := b.GetCategories()
	if len(cats) != 1 || cats[0].Name != "Movies" {
		t.Fatalf("categories = %+v", cats)
	}

	cats[0].Name = "Films"
	if err := b.UpdateCategory(cats[0]); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	cats, _ = b.GetCategories()
	if cats[0].Name != "Films" {
		t.Errorf("update not applied: %q", cats[0].Name)
	}

	if err := b.UpdateCategory(types.Category{ID: "ghost", Name: "x"}); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	if err := b.DeleteCategory(id); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	cats, _ = b.GetCategories()
	if len(cats) != 0 {
		t.Errorf("categories after delete = %+v", cats)
	}
}

func TestDeleteCategory_CascadesSubtreeAndItems(t *testing.T) {
	images := &trackingImages{}
	b := New(testConfig(t.TempDir()), WithImageStore(images))
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer b.Close()

	parent, _ := b.AddCategory(types.Category{Name: "Movies"})
	child, _ := b.AddCategory(types.Category{Name: "Sci-Fi", ParentID: &parent})
	other, _ := b.AddCategory(types.Category{Name: "Books"})

	inParent, _ := b.AddItem(types.Item{Name: "a", CategoryID: parent})
	inChild, _ := b.AddItem(types.Item{Name: "b", CategoryID: child})
	inOther, _ := b.AddItem(types.Item{Name: "c", CategoryID: other})

	if err := b.DeleteCategory(parent); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	cats, _ := b.GetCategories()
	if len(cats) != 1 || cats[0].ID != other {
		t.Errorf("surviving categories = %+v", cats)
	}
	for _, id := range []string{inParent, inChild} {
		if got, _ := b.GetItemByID(id); got != nil {
			t.Errorf("item %s should be cascaded away", id)
		}
	}
	if got, _ := b.GetItemByID(inOther); got == nil {
		t.Error("item in unrelated category must survive")
	}
	if deleted := images.deletedIDs(); len(deleted) != 2 {
		t.Errorf("cascade must release 2 item images, got %v", deleted)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	b := New(cfg)
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	catID, _ := b.AddCategory(types.Category{Name: "Movies"})
	itemID, _ := b.AddItem(types.Item{Name: "Alien", CategoryID: catID})
	if err := b.Close(); err != nil { // flushes the debounced state
		t.Fatalf("Close: %v", err)
	}

	b2 := New(cfg)
	if err := b2.Init(); err != nil {
		t.Fatalf("reopen Init: %v", err)
	}
	defer b2.Close()
	b2.WaitLoaded()

	got, err := b2.GetItemByID(itemID)
	if err != nil || got == nil {
		t.Fatalf("item lost across reopen: %v, %v", got, err)
	}
	cats, _ := b2.GetCategories()
	if len(cats) != 1 || cats[0].ID != catID {
		t.Errorf("categories lost across reopen: %+v", cats)
	}
}

func TestInitialChunks_BackgroundLoadCompletes(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	b := New(cfg)
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	items := make([]types.Item, 45) // 5 chunks of 10
	for i := range items {
		items[i] = types.Item{Name: fmt.Sprintf("item-%04d", i)}
	}
	if err := b.AddItemsBatch(items, nil); err != nil {
		t.Fatalf("AddItemsBatch: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cfg.InitialChunks = 2
	b2 := New(cfg)
	if err := b2.Init(); err != nil {
		t.Fatalf("reopen Init: %v", err)
	}
	defer b2.Close()

	// LoadState waits for the background loader.
	state, err := b2.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(state.Items) != 45 {
		t.Fatalf("loaded %d items, want 45", len(state.Items))
	}
	for i := range state.Items {
		if state.Items[i].Name != fmt.Sprintf("item-%04d", i) {
			t.Fatalf("order broken at %d: %q", i, state.Items[i].Name)
		}
	}
}

func TestImportExport(t *testing.T) {
	b := newTestBackend(t)
	b.AddCategory(types.Category{ID: "c1", Name: "Movies"})
	b.AddItem(types.Item{Name: "Alien", CategoryID: "c1"})

	doc, err := b.ExportData()
	if err != nil {
		t.Fatalf("ExportData: %v", err)
	}
	if len(doc.Items) != 1 || len(doc.Categories) != 1 {
		t.Fatalf("doc = %d items, %d categories", len(doc.Items), len(doc.Categories))
	}

	// Import into a second backend fully replaces its state.
	b2 := newTestBackend(t)
	b2.AddItem(types.Item{Name: "to be replaced"})
	var progressCalls int
	if err := b2.ImportData(doc, func(processed, total int) { progressCalls++ }); err != nil {
		t.Fatalf("ImportData: %v", err)
	}
	if progressCalls == 0 {
		t.Error("import must report progress")
	}
	n, _ := b2.GetItemCount("")
	if n != 1 {
		t.Errorf("count after import = %d, want 1", n)
	}
	items, _ := b2.SearchItems("alien", "", types.MatchPrefix)
	if len(items) != 1 {
		t.Errorf("imported item not searchable: %+v", items)
	}

	// Invalid documents are rejected before any replacement.
	if err := b2.ImportData(types.ExportDocument{}, nil); !errors.Is(err, types.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
	n, _ = b2.GetItemCount("")
	if n != 1 {
		t.Errorf("state must survive rejected import, count = %d", n)
	}
}

func TestBackupAndStats(t *testing.T) {
	b := newTestBackend(t)
	b.AddCategory(types.Category{ID: "c1", Name: "Movies"})
	b.AddItem(types.Item{Name: "Alien", CategoryID: "c1"})
	b.AddItem(types.Item{Name: "Aliens", CategoryID: "c1"})

	path, err := b.Backup()
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if path == "" {
		t.Fatal("Backup must return the written path")
	}

	stats, err := b.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.TotalItems != 2 || stats.TotalCategories != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ItemsByCategory["c1"] != 2 {
		t.Errorf("ItemsByCategory = %v", stats.ItemsByCategory)
	}
	if stats.StorageBytes <= 0 {
		t.Error("StorageBytes should be positive after backup")
	}

	info := b.GetStorageInfo()
	if info.Backend != types.BackendFile {
		t.Errorf("backend = %q", info.Backend)
	}

	if err := b.Vacuum(); err != nil {
		t.Errorf("Vacuum: %v", err)
	}
	if err := b.Optimize(); err != nil {
		t.Errorf("Optimize: %v", err)
	}
}

func TestSaveState(t *testing.T) {
	b := newTestBackend(t)
	b.AddItem(types.Item{Name: "old"})

	err := b.SaveState(types.CatalogState{
		Items:      []types.Item{{ID: "n1", Name: "new"}},
		Categories: []types.Category{{ID: "c1", Name: "Cat"}},
	})
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	state, err := b.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].Name != "new" {
		t.Errorf("items = %+v", state.Items)
	}
	if len(state.Categories) != 1 {
		t.Errorf("categories = %+v", state.Categories)
	}
}
