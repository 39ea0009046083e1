package types

import "time"

// Custom field value types.
const (
	FieldTypeText     = "text"
	FieldTypeNumber   = "number"
	FieldTypeCheckbox = "checkbox"
	FieldTypeSelect   = "select"
	FieldTypeDate     = "date"
)

// validFieldTypes is the set of recognized custom field types.
var validFieldTypes = map[string]bool{
	FieldTypeText:     true,
	FieldTypeNumber:   true,
	FieldTypeCheckbox: true,
	FieldTypeSelect:   true,
	FieldTypeDate:     true,
}

// CustomFieldDefinition describes a user-defined field owned by exactly
// one Category. Items reference definitions by ID through
// Item.CustomFieldValues; there is no cross-category sharing.
type CustomFieldDefinition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"` // select type only
	Min      *float64 `json:"min,omitempty"`     // number type only
	Max      *float64 `json:"max,omitempty"`     // number type only
	Required bool     `json:"required,omitempty"`
}

// Validate checks that the definition is well-formed.
func (d *CustomFieldDefinition) Validate() error {
	if d.ID == "" || d.Name == "" {
		return ErrInvalidData
	}
	if !validFieldTypes[d.Type] {
		return ErrInvalidData
	}
	return nil
}

// ValidateFieldValue checks a custom field value against its definition.
// Values are validated at read/write time rather than enforced by the
// storage schema; nil is accepted for any non-required field.
func ValidateFieldValue(def CustomFieldDefinition, value any) error {
	if value == nil {
		if def.Required {
			return ErrInvalidData
		}
		return nil
	}
	switch def.Type {
	case FieldTypeText:
		if _, ok := value.(string); !ok {
			return ErrInvalidData
		}
	case FieldTypeNumber:
		n, ok := toFloat(value)
		if !ok {
			return ErrInvalidData
		}
		if def.Min != nil && n < *def.Min {
			return ErrInvalidData
		}
		if def.Max != nil && n > *def.Max {
			return ErrInvalidData
		}
	case FieldTypeCheckbox:
		if _, ok := value.(bool); !ok {
			return ErrInvalidData
		}
	case FieldTypeSelect:
		s, ok := value.(string)
		if !ok {
			return ErrInvalidData
		}
		for _, opt := range def.Options {
			if opt == s {
				return nil
			}
		}
		return ErrInvalidData
	case FieldTypeDate:
		s, ok := value.(string)
		if !ok {
			return ErrInvalidData
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return ErrInvalidData
			}
		}
	default:
		return ErrInvalidData
	}
	return nil
}

// toFloat widens the numeric types JSON decoding may produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
