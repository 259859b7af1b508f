// internal/catalog/keys.go
package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// KeySet is the full set of storage keys derived for one book: the primary
// key pair plus the category and author index key pairs. The index sort keys
// must be rewritten whenever category or author change; a stale index key is
// a correctness bug.
type KeySet struct {
	PK     string `json:"pk"`
	SK     string `json:"sk"`
	GSI1PK string `json:"gsi1pk"`
	GSI1SK string `json:"gsi1sk"`
	GSI2PK string `json:"gsi2pk"`
	GSI2SK string `json:"gsi2sk"`
}

// ItemKey addresses one record in the store.
type ItemKey struct {
	PK string
	SK string
}

// EncodeKeys derives the KeySet for a book. Pure; the only failure is an
// empty tenant id, reported before any storage access.
func EncodeKeys(tenantID string, b *Book) (KeySet, error) {
	if tenantID == "" {
		return KeySet{}, ErrMissingTenant
	}
	return KeySet{
		PK:     fmt.Sprintf("%s#%s", tenantID, b.ID),
		SK:     "BOOK#" + b.ISBN,
		GSI1PK: categoryPartition(tenantID),
		GSI1SK: CategorySortKey(b.Category, b.ID),
		GSI2PK: authorPartition(tenantID),
		GSI2SK: AuthorSortKey(b.Author, b.ID),
	}, nil
}

// PrimaryKey returns the primary key pair for a book already loaded from the
// store.
func PrimaryKey(tenantID string, id uuid.UUID, isbn string) ItemKey {
	return ItemKey{
		PK: fmt.Sprintf("%s#%s", tenantID, id),
		SK: "BOOK#" + isbn,
	}
}

// ISBNGuardKey returns the key of the uniqueness guard record that enforces
// at-most-one active book per (tenant, ISBN). The guard is written in the
// same transaction as a create and released on soft delete.
func ISBNGuardKey(tenantID, isbn string) ItemKey {
	return ItemKey{
		PK: fmt.Sprintf("%s#ISBN#%s", tenantID, isbn),
		SK: "GUARD",
	}
}

// CategorySortKey returns the category-index sort key for a book.
func CategorySortKey(category string, id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", category, id)
}

// AuthorSortKey returns the author-index sort key for a book.
func AuthorSortKey(author string, id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", author, id)
}

func categoryPartition(tenantID string) string { return tenantID + "#CATEGORY" }
func authorPartition(tenantID string) string   { return tenantID + "#AUTHOR" }

// keyPrefix returns the sort-key prefix matching every book with exactly the
// given attribute value. The trailing separator keeps "fiction" from also
// matching "fictionalized".
func keyPrefix(value string) string { return value + "#" }
