// internal/catalog/errors.go
package catalog

import "errors"

var (
	// ErrMissingTenant is returned before any backend call when the tenant id
	// is empty; every operation is scoped to exactly one tenant.
	ErrMissingTenant = errors.New("tenant id is required")

	// ErrMissingQuery is returned when a search is attempted with an empty
	// query string.
	ErrMissingQuery = errors.New("search query is required")

	// ErrInvalidFilter is returned when request parameters cannot be
	// interpreted, e.g. a non-numeric page number.
	ErrInvalidFilter = errors.New("invalid filter parameter")

	// ErrNotFound is returned when no book matches the given identity within
	// the tenant.
	ErrNotFound = errors.New("book not found")

	// ErrDuplicateISBN is returned when an active book with the same ISBN
	// already exists within the tenant. This is a semantic conflict, not a
	// fault.
	ErrDuplicateISBN = errors.New("book with this ISBN already exists")

	// ErrSearchUnavailable marks a search backend failure. It never escapes
	// the service: the orchestrator converts it into a fallback scan.
	ErrSearchUnavailable = errors.New("search backend unavailable")
)
