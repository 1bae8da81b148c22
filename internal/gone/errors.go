package gone

import "errors"

// Error kinds returned by Store. Callers match them with errors.Is.
var (
	// ErrValidation indicates an empty, oversized or uncompilable pattern.
	ErrValidation = errors.New("invalid pattern")
	// ErrDuplicate indicates the pattern string is already stored.
	ErrDuplicate = errors.New("pattern already exists")
	// ErrNotFound indicates no pattern has the requested id.
	ErrNotFound = errors.New("pattern not found")
	// ErrStorage indicates the persistence layer failed.
	ErrStorage = errors.New("storage error")
)
