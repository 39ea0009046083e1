package types

// Category groups items and carries the custom field definitions its
// items may reference. Categories form a tree through ParentID; cycles
// are assumed absent.
type Category struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	ParentID        *string                 `json:"parentId,omitempty"`
	OrderIndex      int                     `json:"orderIndex"`
	Icon            *string                 `json:"icon,omitempty"`
	Fields          []CustomFieldDefinition `json:"fields,omitempty"`
	FieldVisibility map[string]bool         `json:"fieldVisibility,omitempty"`
}

// Validate checks the invariants a backend enforces before persisting a
// category.
func (c *Category) Validate() error {
	if c.Name == "" {
		return ErrInvalidData
	}
	for i := range c.Fields {
		if err := c.Fields[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ChildIndex maps a parent category ID to the IDs of its direct children.
// The empty string key holds root categories (nil ParentID).
type ChildIndex map[string][]string

// BuildChildIndex constructs a parent-to-children index over a flat
// category list. Descendant resolution is a pure function over this
// index rather than a pointer graph.
func BuildChildIndex(categories []Category) ChildIndex {
	idx := make(ChildIndex, len(categories))
	for _, c := range categories {
		parent := ""
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		idx[parent] = append(idx[parent], c.ID)
	}
	return idx
}

// Descendants returns the IDs of every category below id in the tree,
// in depth-first order. The result excludes id itself.
func (idx ChildIndex) Descendants(id string) []string {
	var out []string
	for _, child := range idx[id] {
		out = append(out, child)
		out = append(out, idx.Descendants(child)...)
	}
	return out
}

// SubtreeIDs returns id plus all of its descendants as a set, the unit of
// a cascade delete.
func (idx ChildIndex) SubtreeIDs(id string) map[string]bool {
	set := map[string]bool{id: true}
	for _, d := range idx.Descendants(id) {
		set[d] = true
	}
	return set
}
