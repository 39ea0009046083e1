package types

import "errors"

// Supported backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrChunkSizeInvalid = errors.New("chunk size must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendFile:   true,
	BackendSQLite: true,
}

// Config holds backend selection and parameters for opening a catalog.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// ChunkSize overrides the logical capacity of one chunk file for the
	// file backend. Zero selects DefaultChunkSize.
	ChunkSize int `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`

	// InitialChunks bounds how many chunks Init loads synchronously
	// before handing off to background loading. Zero loads everything.
	InitialChunks int `json:"initial_chunks,omitempty" yaml:"initial_chunks,omitempty"`

	// DebounceMillis is the persistence debounce window for the file
	// backend. Zero selects the default (1000ms).
	DebounceMillis int `json:"debounce_millis,omitempty" yaml:"debounce_millis,omitempty"`
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.ChunkSize < 0 {
		return ErrChunkSizeInvalid
	}
	return nil
}
