package types

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Search match modes.
const (
	// MatchPrefix appends a wildcard to each term, for incremental or
	// autocomplete search.
	MatchPrefix = "prefix"
	// MatchPhrase matches the query as one quoted phrase.
	MatchPhrase = "phrase"
)

// SortSpec describes result ordering. Absent (nil) field values sort
// last regardless of direction; string comparison is case-insensitive
// and locale-aware; numeric comparison is plain ordinal.
type SortSpec struct {
	Field     string `json:"field"` // name, year, rating, addedDate, orderIndex
	Direction string `json:"direction"`
}

// Page describes pagination. A zero Size means "no limit".
type Page struct {
	Offset int `json:"offset"`
	Size   int `json:"size"`
}

// ItemFilter narrows a GetItems query. Zero values mean "no constraint".
type ItemFilter struct {
	CategoryID  string         `json:"categoryId,omitempty"`
	Query       string         `json:"query,omitempty"` // free-text, tokenized AND
	Genre       string         `json:"genre,omitempty"`
	Watched     *bool          `json:"watched,omitempty"`
	YearMin     *int           `json:"yearMin,omitempty"`
	YearMax     *int           `json:"yearMax,omitempty"`
	RatingMin   *float64       `json:"ratingMin,omitempty"`
	CustomField map[string]any `json:"customField,omitempty"` // field-definition id -> required value
}

// ProgressFunc reports batch progress as (processed, total). Backends
// invoke it after each committed group.
type ProgressFunc func(processed, total int)

// Statistics summarizes a backend for diagnostics.
type Statistics struct {
	TotalItems      int            `json:"totalItems"`
	TotalCategories int            `json:"totalCategories"`
	ItemsByCategory map[string]int `json:"itemsByCategory,omitempty"`
	StorageBytes    int64          `json:"storageBytes,omitempty"`
}

// StorageInfo identifies a backend and where it keeps its data.
type StorageInfo struct {
	Backend  string `json:"backend"`
	Location string `json:"location"`
	ReadOnly bool   `json:"readOnly"`
}

// Adapter is the capability interface every storage backend implements.
// Read operations never return an error for "not found": missing lookups
// yield empty or nil results. Write operations that fail leave the
// previous durable state intact and return a wrapped standard error.
type Adapter interface {
	// Init prepares the backend for use (creates directories, opens the
	// database, runs legacy migration). Returns ErrAlreadyOpen if called
	// twice.
	Init() error
	// IsReady reports whether Init has completed successfully.
	IsReady() bool
	// Close flushes pending writes and releases resources. Idempotent.
	Close() error

	// LoadState returns the full catalog state.
	LoadState() (CatalogState, error)
	// SaveState replaces the full catalog state.
	SaveState(state CatalogState) error

	GetItems(filter ItemFilter, sort SortSpec, page Page) ([]Item, error)
	GetItemByID(id string) (*Item, error)
	// GetItemCount counts all items, or those in one category when
	// categoryID is non-empty.
	GetItemCount(categoryID string) (int, error)
	AddItem(item Item) (string, error)
	UpdateItem(item Item) error
	DeleteItems(ids []string) error
	// AddItemsBatch imports items in fixed-size committed groups,
	// reporting progress after each group.
	AddItemsBatch(items []Item, progress ProgressFunc) error

	GetCategories() ([]Category, error)
	AddCategory(category Category) (string, error)
	UpdateCategory(category Category) error
	// DeleteCategory removes a category, every descendant category, and
	// all items owned by any of them.
	DeleteCategory(id string) error

	// SearchItems runs a text search over name, description, and genres.
	// A whitespace-separated query matches items containing all terms
	// (case-insensitive). categoryID scopes the search when non-empty.
	SearchItems(query, categoryID, mode string) ([]Item, error)

	ExportData() (ExportDocument, error)
	// ImportData validates the document and fully replaces current state.
	ImportData(doc ExportDocument, progress ProgressFunc) error
	// Backup snapshots the current state to a timestamped document file,
	// distinct from the live storage. Returns the written path.
	Backup() (string, error)

	// Vacuum reclaims space after large deletes.
	Vacuum() error
	// Optimize performs best-effort index maintenance; failures are
	// logged, never raised.
	Optimize() error
	GetStatistics() (Statistics, error)
	GetStorageInfo() StorageInfo
}
