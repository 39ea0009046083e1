package types

import "time"

// Item is a single catalog record: a movie, book, game, or any other
// entry in a personal-media inventory. Optional fields use pointers so
// that "absent" is distinguishable from a zero value; absent values sort
// last regardless of sort direction.
type Item struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Year              *int           `json:"year,omitempty"`
	Rating            *float64       `json:"rating,omitempty"` // bounded 0-10
	Genres            []string       `json:"genres"`
	Description       string         `json:"description"`
	CategoryID        string         `json:"categoryId"`
	Path              string         `json:"path"`
	AddedDate         string         `json:"addedDate"` // RFC 3339
	CoverRef          *string        `json:"coverRef,omitempty"`
	OrderIndex        int            `json:"orderIndex"`
	Season            *int           `json:"season,omitempty"`
	Episode           *int           `json:"episode,omitempty"`
	Watched           bool           `json:"watched"`
	CustomFieldValues map[string]any `json:"customFieldValues,omitempty"`
}

// Rating bounds for Item.Rating.
const (
	RatingMin = 0.0
	RatingMax = 10.0
)

// Validate checks the invariants a backend enforces before persisting an
// item. CategoryID referential integrity is checked by the backend, which
// owns the category set.
func (it *Item) Validate() error {
	if it.Name == "" {
		return ErrInvalidData
	}
	if it.Rating != nil && (*it.Rating < RatingMin || *it.Rating > RatingMax) {
		return ErrInvalidData
	}
	return nil
}

// Normalize fills every optional collection and timestamp with a typed
// default so downstream consumers never see a partially-shaped record.
func (it *Item) Normalize() {
	if it.Genres == nil {
		it.Genres = []string{}
	}
	if it.CustomFieldValues == nil {
		it.CustomFieldValues = map[string]any{}
	}
	if it.AddedDate == "" {
		it.AddedDate = time.Now().UTC().Format(time.RFC3339)
	}
}
