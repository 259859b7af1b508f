// internal/search/meili.go
// Package search implements the search adapter over Meilisearch. Index
// population is handled by an external pipeline; this adapter only queries.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bookvault/internal/catalog"

	"github.com/meilisearch/meilisearch-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Meili queries one Meilisearch index per tenant. All calls run through a
// circuit breaker so a dead backend fails fast instead of holding every
// request for the full transport timeout.
type Meili struct {
	manager       meilisearch.ServiceManager
	indexTemplate string
	breaker       *gobreaker.CircuitBreaker
	logger        *zap.Logger
}

// NewMeili creates a search client. indexTemplate receives the tenant id,
// e.g. "books_%s".
func NewMeili(host, apiKey, indexTemplate string, logger *zap.Logger) *Meili {
	var opts []meilisearch.Option
	if apiKey != "" {
		opts = append(opts, meilisearch.WithAPIKey(apiKey))
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "meilisearch",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("search breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Meili{
		manager:       meilisearch.New(host, opts...),
		indexTemplate: indexTemplate,
		breaker:       breaker,
		logger:        logger,
	}
}

// Search runs a ranked query against the tenant's index. Every failure —
// transport, missing index, open breaker, undecodable hit — is wrapped in
// ErrSearchUnavailable: the orchestrator treats them all as fallback
// triggers, never as empty results.
//
// Field weighting (title over author over description/category) lives in the
// index's searchableAttributes order, owned by the indexing pipeline.
func (m *Meili) Search(ctx context.Context, tenantID string, q catalog.SearchQuery) (*catalog.SearchHits, error) {
	index := fmt.Sprintf(m.indexTemplate, tenantID)

	out, err := m.breaker.Execute(func() (interface{}, error) {
		return m.manager.Index(index).SearchWithContext(ctx, queryText(q), &meilisearch.SearchRequest{
			Offset: int64(q.Offset),
			Limit:  int64(q.Limit),
			Filter: "is_active = true",
			Sort:   []string{"created_at:desc"},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrSearchUnavailable, err)
	}

	resp := out.(*meilisearch.SearchResponse)
	books := make([]catalog.Book, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			return nil, fmt.Errorf("%w: encode hit: %v", catalog.ErrSearchUnavailable, err)
		}
		var b catalog.Book
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%w: decode hit: %v", catalog.ErrSearchUnavailable, err)
		}
		books = append(books, b)
	}

	return &catalog.SearchHits{
		Books: books,
		Total: int(resp.EstimatedTotalHits),
	}, nil
}

// queryText renders the query for Meilisearch. A non-fuzzy search is sent as
// a phrase query, which disables typo tolerance.
func queryText(q catalog.SearchQuery) string {
	if q.Fuzzy {
		return q.Text
	}
	return `"` + strings.ReplaceAll(q.Text, `"`, "") + `"`
}
