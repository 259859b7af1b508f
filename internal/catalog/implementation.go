// internal/catalog/implementation.go
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// recommendationMinRating is the placeholder scoring threshold pending a
// real ranking signal.
const recommendationMinRating = 3.0

// service implements the Service interface.
type service struct {
	store       RecordStore
	search      SearchClient
	scanLimiter *rate.Limiter
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewService creates a new catalog service instance. The fallback scan path
// is rate-limited because it is the one operation whose cost grows with the
// tenant's whole catalog.
func NewService(store RecordStore, search SearchClient, logger *zap.Logger) Service {
	return &service{
		store:       store,
		search:      search,
		scanLimiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		tracer:      otel.Tracer("bookvault/catalog"),
		logger:      logger,
	}
}

// ListBooks routes the filter set to an index or scan, then sorts and pages
// the result in memory.
func (s *service) ListBooks(ctx context.Context, tenantID string, filters Filters, sortBy string, page, limit int) (*Page[Book], error) {
	q, err := Route(tenantID, filters, sortBy)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "catalog.list",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("query.backend", q.Backend.String()),
		),
	)
	defer span.End()

	books, err := s.dispatch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	sortBooks(books, q.Sort)
	result := paginate(books, page, limit)
	return &result, nil
}

// dispatch executes a query descriptor against the record store.
func (s *service) dispatch(ctx context.Context, q QueryDescriptor) ([]Book, error) {
	switch q.Backend {
	case BackendCategoryIndex, BackendAuthorIndex:
		return s.store.QueryByPrefix(ctx, q.Index, q.PartitionKey, q.SortKeyPrefix, q.OnlyActive)
	default:
		return s.store.Scan(ctx, ScanPredicate{TenantID: q.TenantID, OnlyActive: q.OnlyActive})
	}
}

// GetBook returns a book by id. Soft-deleted books stay readable by id.
func (s *service) GetBook(ctx context.Context, tenantID string, id uuid.UUID) (*Book, error) {
	return s.findByID(ctx, tenantID, id)
}

// GetBookByISBN resolves the natural key. Only active books carry it.
func (s *service) GetBookByISBN(ctx context.Context, tenantID, isbn string) (*Book, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}

	books, err := s.store.Scan(ctx, ScanPredicate{TenantID: tenantID, ISBN: isbn, OnlyActive: true})
	if err != nil {
		return nil, fmt.Errorf("get by isbn: %w", err)
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}

// ListCategories returns the distinct categories of a tenant's active books,
// sorted for reproducibility.
func (s *service) ListCategories(ctx context.Context, tenantID string) ([]string, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}

	books, err := s.store.Scan(ctx, ScanPredicate{TenantID: tenantID, OnlyActive: true})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return distinct(books, func(b Book) string { return b.Category }), nil
}

// ListAuthors returns the distinct authors of a tenant's active books, paged.
func (s *service) ListAuthors(ctx context.Context, tenantID string, page, limit int) (*Page[string], error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}

	books, err := s.store.Scan(ctx, ScanPredicate{TenantID: tenantID, OnlyActive: true})
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}

	authors := distinct(books, func(b Book) string { return b.Author })
	result := paginate(authors, page, limit)
	return &result, nil
}

// GetRecommendations returns the tenant's best-rated active books.
func (s *service) GetRecommendations(ctx context.Context, tenantID string, limit int) (*Recommendations, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	limit = clampLimit(limit)

	books, err := s.store.Scan(ctx, ScanPredicate{
		TenantID:   tenantID,
		OnlyActive: true,
		MinRating:  recommendationMinRating,
	})
	if err != nil {
		return nil, fmt.Errorf("get recommendations: %w", err)
	}

	sortBooks(books, SortRatingDesc)
	if len(books) > limit {
		books = books[:limit]
	}

	return &Recommendations{
		Recommendations: books,
		Total:           len(books),
		BasedOn:         "rating",
	}, nil
}

// SearchBooks tries the ranked search index first and falls back to a
// scan-and-filter with OR term semantics when the index is unreachable. Both
// paths share the same result shape; only the Degraded flag tells them apart.
func (s *service) SearchBooks(ctx context.Context, tenantID, query string, fuzzy bool, page, limit int) (*SearchResult, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrMissingQuery
	}
	page, limit = clampPage(page), clampLimit(limit)

	ctx, span := s.tracer.Start(ctx, "catalog.search",
		trace.WithAttributes(attribute.String("tenant.id", tenantID)),
	)
	defer span.End()

	hits, err := s.search.Search(ctx, tenantID, SearchQuery{
		Text:   query,
		Fuzzy:  fuzzy,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err == nil {
		span.SetAttributes(attribute.String("search.source", string(SourceIndex)))
		return &SearchResult{
			Data:       hits.Books,
			Pagination: pageMeta(page, limit, hits.Total),
			Source:     SourceIndex,
		}, nil
	}

	s.logger.Warn("search index unavailable, falling back to scan",
		zap.String("tenant_id", tenantID),
		zap.Error(err),
	)
	span.SetAttributes(attribute.String("search.source", string(SourceFallbackScan)))

	if err := s.scanLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search fallback: %w", err)
	}

	books, err := s.store.Scan(ctx, ScanPredicate{TenantID: tenantID, OnlyActive: true})
	if err != nil {
		return nil, fmt.Errorf("search fallback scan: %w", err)
	}

	matched := filterByTerms(books, query)
	sortBooks(matched, SortCreatedAtDesc)
	result := paginate(matched, page, limit)

	return &SearchResult{
		Data:       result.Data,
		Pagination: result.Pagination,
		Degraded:   true,
		Source:     SourceFallbackScan,
	}, nil
}

// filterByTerms keeps books whose searchable text contains any of the
// whitespace-separated query terms, case-folded. This is deliberately OR
// semantics: a lower-precision match than the ranked index.
func filterByTerms(books []Book, query string) []Book {
	terms := strings.Fields(strings.ToLower(query))

	matched := make([]Book, 0, len(books))
	for _, b := range books {
		text := strings.ToLower(b.Title + " " + b.Author + " " + b.Description + " " + b.Category)
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched = append(matched, b)
				break
			}
		}
	}
	return matched
}

// CreateBook writes a new active book. The (tenant, ISBN) uniqueness is
// enforced by a conditional write in the store, so a retried create after a
// transient failure yields ErrDuplicateISBN rather than a double record.
func (s *service) CreateBook(ctx context.Context, tenantID string, in CreateBookInput) (*Book, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}

	ctx, span := s.tracer.Start(ctx, "catalog.create",
		trace.WithAttributes(attribute.String("tenant.id", tenantID)),
	)
	defer span.End()

	now := time.Now().UTC()
	book := &Book{
		ID:              uuid.New(),
		TenantID:        tenantID,
		ISBN:            in.ISBN,
		Title:           in.Title,
		Author:          in.Author,
		Publisher:       in.Publisher,
		Category:        in.Category,
		Description:     in.Description,
		CoverImageURL:   in.CoverImageURL,
		Language:        in.Language,
		Price:           in.Price,
		Rating:          in.Rating,
		StockQuantity:   in.StockQuantity,
		PublicationYear: in.PublicationYear,
		Pages:           in.Pages,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	keys, err := EncodeKeys(tenantID, book)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, book, keys); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// UpdateBook merges the supplied fields into an existing book. The book is
// located by id regardless of its active state, so a soft-deleted record can
// still be edited. When category or author change, the corresponding index
// sort keys are recomputed and rewritten in the same update.
func (s *service) UpdateBook(ctx context.Context, tenantID string, id uuid.UUID, in UpdateBookInput) (*Book, error) {
	current, err := s.findByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "catalog.update",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("book.id", id.String()),
		),
	)
	defer span.End()

	patch := UpdatePatch{
		Title:           in.Title,
		Author:          in.Author,
		Publisher:       in.Publisher,
		Category:        in.Category,
		Description:     in.Description,
		CoverImageURL:   in.CoverImageURL,
		Language:        in.Language,
		Price:           in.Price,
		Rating:          in.Rating,
		StockQuantity:   in.StockQuantity,
		PublicationYear: in.PublicationYear,
		Pages:           in.Pages,
		UpdatedAt:       time.Now().UTC(),
	}
	if in.Category != nil {
		key := CategorySortKey(*in.Category, id)
		patch.CategoryKey = &key
	}
	if in.Author != nil {
		key := AuthorSortKey(*in.Author, id)
		patch.AuthorKey = &key
	}

	updated, err := s.store.Update(ctx, PrimaryKey(tenantID, id, current.ISBN), patch)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return updated, nil
}

// UpdateBookCover replaces the cover image URL and reads the record back.
func (s *service) UpdateBookCover(ctx context.Context, tenantID string, id uuid.UUID, coverURL string) (*Book, error) {
	current, err := s.findByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	key := PrimaryKey(tenantID, id, current.ISBN)
	patch := UpdatePatch{CoverImageURL: &coverURL, UpdatedAt: time.Now().UTC()}
	if _, err := s.store.Update(ctx, key, patch); err != nil {
		return nil, fmt.Errorf("update book cover: %w", err)
	}

	book, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reload book: %w", err)
	}
	return book, nil
}

// DeleteBook is logical only: the record is marked inactive and its ISBN
// guard released. The secondary-index keys stay behind; every read path
// filters inactive records.
func (s *service) DeleteBook(ctx context.Context, tenantID string, id uuid.UUID) error {
	current, err := s.findByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !current.Active {
		return ErrNotFound
	}

	ctx, span := s.tracer.Start(ctx, "catalog.delete",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("book.id", id.String()),
		),
	)
	defer span.End()

	key := PrimaryKey(tenantID, id, current.ISBN)
	guard := ISBNGuardKey(tenantID, current.ISBN)
	if err := s.store.SoftDelete(ctx, key, guard, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// findByID locates a record within a tenant by id, ignoring the active flag.
func (s *service) findByID(ctx context.Context, tenantID string, id uuid.UUID) (*Book, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}

	books, err := s.store.Scan(ctx, ScanPredicate{TenantID: tenantID, BookID: id.String()})
	if err != nil {
		return nil, fmt.Errorf("find by id: %w", err)
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}

// distinct projects books through f and returns the sorted unique non-empty
// values.
func distinct(books []Book, f func(Book) string) []string {
	seen := make(map[string]struct{}, len(books))
	values := make([]string, 0, len(books))
	for _, b := range books {
		v := f(b)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
