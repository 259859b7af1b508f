// internal/store/memory.go
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"bookvault/internal/catalog"
)

type memoryEntry struct {
	book catalog.Book
	keys catalog.KeySet
}

// Memory is an in-process record store with the same contract as Dynamo,
// including the conditional-write guarantee. It backs tests and local runs.
type Memory struct {
	mu     sync.RWMutex
	items  map[string]memoryEntry // by primary pk
	guards map[string]string      // guard pk -> record pk
}

// NewMemory creates an empty in-memory record store.
func NewMemory() *Memory {
	return &Memory{
		items:  make(map[string]memoryEntry),
		guards: make(map[string]string),
	}
}

// Get reads one record by primary key, regardless of active state.
func (m *Memory) Get(_ context.Context, key catalog.ItemKey) (*catalog.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.items[key.PK]
	if !ok || entry.keys.SK != key.SK {
		return nil, catalog.ErrNotFound
	}
	book := entry.book
	return &book, nil
}

// Put writes a new record, failing when the ISBN guard already exists.
func (m *Memory) Put(_ context.Context, book *catalog.Book, keys catalog.KeySet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	guard := catalog.ISBNGuardKey(book.TenantID, book.ISBN)
	if _, taken := m.guards[guard.PK]; taken {
		return catalog.ErrDuplicateISBN
	}
	if _, exists := m.items[keys.PK]; exists {
		return catalog.ErrDuplicateISBN
	}

	m.items[keys.PK] = memoryEntry{book: *book, keys: keys}
	m.guards[guard.PK] = keys.PK
	return nil
}

// Update applies the patch and returns the updated book.
func (m *Memory) Update(_ context.Context, key catalog.ItemKey, patch catalog.UpdatePatch) (*catalog.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key.PK]
	if !ok {
		return nil, catalog.ErrNotFound
	}

	applyPatch(&entry.book, &entry.keys, patch)
	m.items[key.PK] = entry

	book := entry.book
	return &book, nil
}

// SoftDelete marks the record inactive and releases its ISBN guard.
func (m *Memory) SoftDelete(_ context.Context, key, guard catalog.ItemKey, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key.PK]
	if !ok {
		return catalog.ErrNotFound
	}

	entry.book.Active = false
	entry.book.UpdatedAt = now
	m.items[key.PK] = entry
	delete(m.guards, guard.PK)
	return nil
}

// QueryByPrefix matches the partition key exactly and the sort key by prefix
// against the chosen index.
func (m *Memory) QueryByPrefix(_ context.Context, index catalog.IndexName, partitionKey, sortKeyPrefix string, onlyActive bool) ([]catalog.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var books []catalog.Book
	for _, entry := range m.items {
		pk, sk := entry.keys.GSI1PK, entry.keys.GSI1SK
		if index == catalog.IndexAuthor {
			pk, sk = entry.keys.GSI2PK, entry.keys.GSI2SK
		}
		if pk != partitionKey || !strings.HasPrefix(sk, sortKeyPrefix) {
			continue
		}
		if onlyActive && !entry.book.Active {
			continue
		}
		books = append(books, entry.book)
	}
	return books, nil
}

// Scan enumerates records matching the predicate.
func (m *Memory) Scan(_ context.Context, pred catalog.ScanPredicate) ([]catalog.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var books []catalog.Book
	for _, entry := range m.items {
		b := entry.book
		if b.TenantID != pred.TenantID {
			continue
		}
		if pred.OnlyActive && !b.Active {
			continue
		}
		if pred.BookID != "" && b.ID.String() != pred.BookID {
			continue
		}
		if pred.ISBN != "" && b.ISBN != pred.ISBN {
			continue
		}
		if pred.MinRating > 0 && b.Rating < pred.MinRating {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}

func applyPatch(b *catalog.Book, k *catalog.KeySet, p catalog.UpdatePatch) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Publisher != nil {
		b.Publisher = *p.Publisher
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.CoverImageURL != nil {
		b.CoverImageURL = *p.CoverImageURL
	}
	if p.Language != nil {
		b.Language = *p.Language
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.StockQuantity != nil {
		b.StockQuantity = *p.StockQuantity
	}
	if p.PublicationYear != nil {
		b.PublicationYear = *p.PublicationYear
	}
	if p.Pages != nil {
		b.Pages = *p.Pages
	}
	if p.Active != nil {
		b.Active = *p.Active
	}
	if p.CategoryKey != nil {
		k.GSI1SK = *p.CategoryKey
	}
	if p.AuthorKey != nil {
		k.GSI2SK = *p.AuthorKey
	}
	b.UpdatedAt = p.UpdatedAt
}
