// internal/catalog/router.go
package catalog

// Backend identifies the retrieval path a query descriptor targets.
type Backend int

const (
	// BackendPrimary enumerates a tenant's books without an index, via a
	// filtered scan.
	BackendPrimary Backend = iota
	// BackendCategoryIndex serves category filters through the category
	// secondary index.
	BackendCategoryIndex
	// BackendAuthorIndex serves author filters through the author secondary
	// index.
	BackendAuthorIndex
)

func (b Backend) String() string {
	switch b {
	case BackendCategoryIndex:
		return "category-index"
	case BackendAuthorIndex:
		return "author-index"
	default:
		return "primary"
	}
}

// IndexName names a secondary index in the record store.
type IndexName string

const (
	IndexCategory IndexName = "GSI1"
	IndexAuthor   IndexName = "GSI2"
)

// QueryDescriptor is the immutable value produced by Route and consumed by
// the record store adapter. OnlyActive is always set: soft-deleted books are
// excluded at this layer, never left to the caller.
type QueryDescriptor struct {
	TenantID      string
	Backend       Backend
	Index         IndexName
	PartitionKey  string
	SortKeyPrefix string
	OnlyActive    bool
	Sort          SortOrder
}

// Route selects the retrieval path for a filter set. The priority is fixed
// to avoid ambiguity when multiple filters are present: category first, then
// author, then an unfiltered tenant-scoped listing.
func Route(tenantID string, f Filters, sort string) (QueryDescriptor, error) {
	if tenantID == "" {
		return QueryDescriptor{}, ErrMissingTenant
	}

	q := QueryDescriptor{
		TenantID:   tenantID,
		OnlyActive: true,
		Sort:       ParseSort(sort),
	}

	switch {
	case f.Category != "":
		q.Backend = BackendCategoryIndex
		q.Index = IndexCategory
		q.PartitionKey = categoryPartition(tenantID)
		q.SortKeyPrefix = keyPrefix(f.Category)
	case f.Author != "":
		q.Backend = BackendAuthorIndex
		q.Index = IndexAuthor
		q.PartitionKey = authorPartition(tenantID)
		q.SortKeyPrefix = keyPrefix(f.Author)
	default:
		q.Backend = BackendPrimary
	}

	return q, nil
}
