// internal/catalog/pagination.go
package catalog

import (
	"sort"
	"strings"
)

const maxPageLimit = 100

// Pagination describes a page's position within the full result set.
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	ItemsPerPage int  `json:"items_per_page"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// Page is one slice of an ordered result set plus its pagination metadata.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// clampPage treats pages as 1-indexed; anything below 1 means the first page.
func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// clampLimit bounds the page size to [1, 100] to cap worst-case scan cost.
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

// pageMeta computes pagination metadata when the backend already applied
// server-side slicing and supplied the total count itself.
func pageMeta(page, limit, total int) Pagination {
	totalPages := (total + limit - 1) / limit
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrevious:  page > 1,
	}
}

// paginate slices an in-memory result set. The caller must have sorted items
// beforehand; slicing an unordered set would make pages irreproducible.
func paginate[T any](items []T, page, limit int) Page[T] {
	page, limit = clampPage(page), clampLimit(limit)

	start := (page - 1) * limit
	end := start + limit
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Data:       items[start:end],
		Pagination: pageMeta(page, limit, len(items)),
	}
}

// sortBooks orders books deterministically for the given order, breaking
// ties by book ID so identical data always yields identical pages.
func sortBooks(books []Book, order SortOrder) {
	sort.Slice(books, func(i, j int) bool {
		a, b := books[i], books[j]
		switch order {
		case SortTitleAsc:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		case SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case SortRatingDesc:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID.String() < b.ID.String()
	})
}
