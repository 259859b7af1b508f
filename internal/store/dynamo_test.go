// internal/store/dynamo_test.go
package store

import (
	"errors"
	"testing"
	"time"

	"bookvault/internal/catalog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScanFilterTenantOnly(t *testing.T) {
	filter, values := buildScanFilter(catalog.ScanPredicate{TenantID: "t1"})

	assert.Equal(t, "tenant_id = :tenant", filter)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "t1"}, values[":tenant"])
	assert.Len(t, values, 1)
}

func TestBuildScanFilterAllPredicates(t *testing.T) {
	filter, values := buildScanFilter(catalog.ScanPredicate{
		TenantID:   "t1",
		BookID:     "abc",
		ISBN:       "123",
		OnlyActive: true,
		MinRating:  3.0,
	})

	assert.Equal(t, "tenant_id = :tenant AND is_active = :active AND book_id = :book_id AND isbn = :isbn AND rating >= :min_rating", filter)
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, values[":active"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, values[":min_rating"])
}

func TestBuildUpdateAlwaysTouchesUpdatedAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	expr, names, values := buildUpdate(catalog.UpdatePatch{UpdatedAt: now})

	assert.Equal(t, "SET #updated_at = :updated_at", expr)
	assert.Equal(t, map[string]string{"#updated_at": "updated_at"}, names)
	assert.Equal(t, &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)}, values[":updated_at"])
}

func TestBuildUpdateRendersSuppliedFields(t *testing.T) {
	title := "New Title"
	lang := "fr"
	price := 12.5
	categoryKey := "nonfiction#some-id"

	expr, names, values := buildUpdate(catalog.UpdatePatch{
		Title:       &title,
		Language:    &lang,
		Price:       &price,
		CategoryKey: &categoryKey,
		UpdatedAt:   time.Now().UTC(),
	})

	assert.Contains(t, expr, "#title = :title")
	assert.Contains(t, expr, "#language = :language")
	assert.Contains(t, expr, "#price = :price")
	assert.Contains(t, expr, "#gsi1sk = :gsi1sk")

	// Reserved words like "language" must be referenced through names.
	assert.Equal(t, "language", names["#language"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "New Title"}, values[":title"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "12.5"}, values[":price"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "nonfiction#some-id"}, values[":gsi1sk"])
}

func TestBuildUpdateSkipsNilFields(t *testing.T) {
	_, names, _ := buildUpdate(catalog.UpdatePatch{UpdatedAt: time.Now().UTC()})

	assert.NotContains(t, names, "#title")
	assert.NotContains(t, names, "#price")
	assert.NotContains(t, names, "#is_active")
}

func TestIsConditionFailure(t *testing.T) {
	assert.True(t, isConditionFailure(&types.ConditionalCheckFailedException{}))

	cancelled := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}
	assert.True(t, isConditionFailure(cancelled))

	otherReason := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("TransactionConflict")}},
	}
	assert.False(t, isConditionFailure(otherReason))
	assert.False(t, isConditionFailure(errors.New("throttled")))
}

func TestRecordRoundTrip(t *testing.T) {
	book := &catalog.Book{
		ID:        uuid.New(),
		TenantID:  "t1",
		ISBN:      "9780141439518",
		Title:     "Pride and Prejudice",
		Author:    "Jane Austen",
		Category:  "fiction",
		Price:     9.99,
		Rating:    4.5,
		Active:    true,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	keys, err := catalog.EncodeKeys("t1", book)
	require.NoError(t, err)

	rec := toRecord(book, keys)
	assert.Equal(t, keys.PK, rec.PK)
	assert.Equal(t, keys.GSI1SK, rec.GSI1SK)
	assert.Equal(t, book.ID.String(), rec.BookID)

	assert.Equal(t, *book, rec.toBook())
}

func TestIndexKeyAttrs(t *testing.T) {
	pk, sk := indexKeyAttrs(catalog.IndexCategory)
	assert.Equal(t, "gsi1pk", pk)
	assert.Equal(t, "gsi1sk", sk)

	pk, sk = indexKeyAttrs(catalog.IndexAuthor)
	assert.Equal(t, "gsi2pk", pk)
	assert.Equal(t, "gsi2sk", sk)
}
