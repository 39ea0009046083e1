package types

import "errors"

// Standard errors shared by all storage backends. Callers match with
// errors.Is; backends wrap these with operation context via fmt.Errorf("%w").
var (
	// ErrNotFound indicates the requested entity does not exist. Read
	// operations never return this for plain lookups (they return an empty
	// result instead); it is reserved for mutations targeting a missing
	// entity.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID indicates an empty or malformed entity ID.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidData indicates an entity failed validation before a write.
	ErrInvalidData = errors.New("invalid data")

	// ErrAdapterClosed indicates an operation on an adapter that is not
	// initialized or has been closed.
	ErrAdapterClosed = errors.New("adapter is closed")

	// ErrAlreadyOpen indicates Init was called on an adapter that is
	// already initialized.
	ErrAlreadyOpen = errors.New("adapter is already open")

	// ErrDecode indicates a stored record could not be decoded. Load paths
	// recover from it locally by treating the entity as absent.
	ErrDecode = errors.New("decode failed")

	// ErrValidation indicates an import document is missing required
	// top-level fields. Raised before any write occurs.
	ErrValidation = errors.New("validation failed")

	// ErrMigration indicates a legacy-format migration step failed after
	// the backup was taken. Legacy data and backup are both retained.
	ErrMigration = errors.New("migration failed")
)
