// internal/catalog/adapters.go
package catalog

import (
	"context"
	"time"
)

// ScanPredicate is the filter set a scan pushes down to the record store.
// Zero-valued fields are not applied.
type ScanPredicate struct {
	TenantID   string
	BookID     string
	ISBN       string
	OnlyActive bool
	MinRating  float64
}

// UpdatePatch is a storage-level partial update. Nil fields are untouched.
// CategoryKey and AuthorKey carry the recomputed secondary-index sort keys
// and must be set whenever Category or Author is; the adapter applies the
// whole patch as one update so no stale index key survives.
type UpdatePatch struct {
	Title           *string
	Author          *string
	Publisher       *string
	Category        *string
	Description     *string
	CoverImageURL   *string
	Language        *string
	Price           *float64
	Rating          *float64
	StockQuantity   *int
	PublicationYear *int
	Pages           *int
	Active          *bool
	CategoryKey     *string
	AuthorKey       *string
	UpdatedAt       time.Time
}

// RecordStore abstracts the key-value store's primitives. Implementations
// return ErrNotFound and ErrDuplicateISBN for the corresponding conditions;
// any other error is an unexpected store failure.
type RecordStore interface {
	// Get reads one record by its primary key, regardless of active state.
	Get(ctx context.Context, key ItemKey) (*Book, error)

	// Put writes a new record together with its ISBN uniqueness guard in one
	// conditional write. Returns ErrDuplicateISBN when an active book with
	// the same (tenant, ISBN) exists.
	Put(ctx context.Context, book *Book, keys KeySet) error

	// Update applies a patch to an existing record and returns the updated
	// book.
	Update(ctx context.Context, key ItemKey, patch UpdatePatch) (*Book, error)

	// SoftDelete marks a record inactive and releases its ISBN guard so the
	// natural key can be reused. The index keys stay in place; reads filter
	// them out.
	SoftDelete(ctx context.Context, key, guard ItemKey, now time.Time) error

	// QueryByPrefix runs a key-prefix query against a secondary index.
	QueryByPrefix(ctx context.Context, index IndexName, partitionKey, sortKeyPrefix string, onlyActive bool) ([]Book, error)

	// Scan enumerates records matching the predicate.
	Scan(ctx context.Context, pred ScanPredicate) ([]Book, error)
}

// SearchQuery is one ranked search request. Offset and Limit are applied
// server-side by the search backend.
type SearchQuery struct {
	Text   string
	Fuzzy  bool
	Offset int
	Limit  int
}

// SearchHits is the raw outcome of a ranked search: the page of matching
// books plus the backend's total match count.
type SearchHits struct {
	Books []Book
	Total int
}

// SearchClient abstracts the inverted-index search service. Implementations
// must wrap every availability failure (connectivity, missing tenant index)
// in ErrSearchUnavailable so the caller can distinguish a fallback trigger
// from a legitimately empty result.
type SearchClient interface {
	Search(ctx context.Context, tenantID string, q SearchQuery) (*SearchHits, error)
}
