// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Book is a tenant-scoped catalog item. Within a tenant the ISBN uniquely
// identifies at most one active book; the ID identifies the record regardless
// of its active state.
type Book struct {
	ID              uuid.UUID `json:"id"`
	TenantID        string    `json:"tenant_id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Publisher       string    `json:"publisher,omitempty"`
	Category        string    `json:"category"`
	Description     string    `json:"description,omitempty"`
	CoverImageURL   string    `json:"cover_image_url,omitempty"`
	Language        string    `json:"language,omitempty"`
	Price           float64   `json:"price"`
	Rating          float64   `json:"rating"`
	StockQuantity   int       `json:"stock_quantity"`
	PublicationYear int       `json:"publication_year,omitempty"`
	Pages           int       `json:"pages,omitempty"`
	Active          bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Filters narrows a listing to a single category or author. When both are
// set, category wins (see Route).
type Filters struct {
	Category string
	Author   string
}

// SortOrder is a deterministic listing order. Every order breaks ties by
// book ID so repeated calls over unchanged data return identical pages.
type SortOrder string

const (
	SortCreatedAtDesc SortOrder = "created_at"
	SortTitleAsc      SortOrder = "title"
	SortPriceAsc      SortOrder = "price"
	SortRatingDesc    SortOrder = "rating"
)

// ParseSort maps a caller-supplied sort value to a SortOrder. Unknown values
// fall back to the default rather than erroring; this leniency is deliberate.
func ParseSort(s string) SortOrder {
	switch SortOrder(s) {
	case SortTitleAsc, SortPriceAsc, SortRatingDesc:
		return SortOrder(s)
	}
	return SortCreatedAtDesc
}

// SearchSource names the backend that produced a search result.
type SearchSource string

const (
	SourceIndex        SearchSource = "index"
	SourceFallbackScan SearchSource = "fallback-scan"
)

// SearchResult is the normalized shape shared by the ranked-index and
// fallback-scan paths. Degraded is true when the search backend was
// unreachable and substring containment was used instead of ranked relevance.
type SearchResult struct {
	Data       []Book       `json:"data"`
	Pagination Pagination   `json:"pagination"`
	Degraded   bool         `json:"degraded"`
	Source     SearchSource `json:"source"`
}

// Recommendations is a placeholder scoring policy: active books rated at or
// above the threshold, best first, capped at the requested limit.
type Recommendations struct {
	Recommendations []Book `json:"recommendations"`
	Total           int    `json:"total"`
	BasedOn         string `json:"based_on"`
}

// CreateBookInput carries the attributes of a new book. Identity, timestamps
// and the active flag are assigned by the service.
type CreateBookInput struct {
	ISBN            string  `json:"isbn"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Publisher       string  `json:"publisher"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	CoverImageURL   string  `json:"cover_image_url"`
	Language        string  `json:"language"`
	Price           float64 `json:"price"`
	Rating          float64 `json:"rating"`
	StockQuantity   int     `json:"stock_quantity"`
	PublicationYear int     `json:"publication_year"`
	Pages           int     `json:"pages"`
}

// UpdateBookInput is a partial update; nil fields are left untouched.
type UpdateBookInput struct {
	Title           *string  `json:"title"`
	Author          *string  `json:"author"`
	Publisher       *string  `json:"publisher"`
	Category        *string  `json:"category"`
	Description     *string  `json:"description"`
	CoverImageURL   *string  `json:"cover_image_url"`
	Language        *string  `json:"language"`
	Price           *float64 `json:"price"`
	Rating          *float64 `json:"rating"`
	StockQuantity   *int     `json:"stock_quantity"`
	PublicationYear *int     `json:"publication_year"`
	Pages           *int     `json:"pages"`
}
