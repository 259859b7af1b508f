// internal/catalog/router_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteCategoryFilter(t *testing.T) {
	q, err := Route("t1", Filters{Category: "fiction"}, "")
	require.NoError(t, err)

	assert.Equal(t, BackendCategoryIndex, q.Backend)
	assert.Equal(t, IndexCategory, q.Index)
	assert.Equal(t, "t1#CATEGORY", q.PartitionKey)
	assert.Equal(t, "fiction#", q.SortKeyPrefix)
	assert.True(t, q.OnlyActive)
}

func TestRouteAuthorFilter(t *testing.T) {
	q, err := Route("t1", Filters{Author: "Jane Austen"}, "")
	require.NoError(t, err)

	assert.Equal(t, BackendAuthorIndex, q.Backend)
	assert.Equal(t, IndexAuthor, q.Index)
	assert.Equal(t, "t1#AUTHOR", q.PartitionKey)
	assert.Equal(t, "Jane Austen#", q.SortKeyPrefix)
	assert.True(t, q.OnlyActive)
}

func TestRouteCategoryWinsOverAuthor(t *testing.T) {
	q, err := Route("t1", Filters{Category: "fiction", Author: "Jane Austen"}, "")
	require.NoError(t, err)
	assert.Equal(t, BackendCategoryIndex, q.Backend)
}

func TestRouteNoFiltersUsesPrimary(t *testing.T) {
	q, err := Route("t1", Filters{}, "")
	require.NoError(t, err)

	assert.Equal(t, BackendPrimary, q.Backend)
	assert.Empty(t, q.PartitionKey)
	assert.True(t, q.OnlyActive)
}

func TestRouteRejectsMissingTenant(t *testing.T) {
	_, err := Route("", Filters{Category: "fiction"}, "")
	assert.ErrorIs(t, err, ErrMissingTenant)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortTitleAsc, ParseSort("title"))
	assert.Equal(t, SortPriceAsc, ParseSort("price"))
	assert.Equal(t, SortRatingDesc, ParseSort("rating"))
	assert.Equal(t, SortCreatedAtDesc, ParseSort("created_at"))

	// Unknown sorts fall back to the default instead of erroring.
	assert.Equal(t, SortCreatedAtDesc, ParseSort("isbn"))
	assert.Equal(t, SortCreatedAtDesc, ParseSort(""))
}

func TestBackendString(t *testing.T) {
	assert.Equal(t, "primary", BackendPrimary.String())
	assert.Equal(t, "category-index", BackendCategoryIndex.String())
	assert.Equal(t, "author-index", BackendAuthorIndex.String())
}
