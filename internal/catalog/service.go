// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service. Every operation is
// scoped to one tenant.
type Service interface {
	ListBooks(ctx context.Context, tenantID string, filters Filters, sort string, page, limit int) (*Page[Book], error)
	GetBook(ctx context.Context, tenantID string, id uuid.UUID) (*Book, error)
	GetBookByISBN(ctx context.Context, tenantID, isbn string) (*Book, error)
	ListCategories(ctx context.Context, tenantID string) ([]string, error)
	ListAuthors(ctx context.Context, tenantID string, page, limit int) (*Page[string], error)
	GetRecommendations(ctx context.Context, tenantID string, limit int) (*Recommendations, error)
	SearchBooks(ctx context.Context, tenantID, query string, fuzzy bool, page, limit int) (*SearchResult, error)
	CreateBook(ctx context.Context, tenantID string, in CreateBookInput) (*Book, error)
	UpdateBook(ctx context.Context, tenantID string, id uuid.UUID, in UpdateBookInput) (*Book, error)
	UpdateBookCover(ctx context.Context, tenantID string, id uuid.UUID, coverURL string) (*Book, error)
	DeleteBook(ctx context.Context, tenantID string, id uuid.UUID) error
}
