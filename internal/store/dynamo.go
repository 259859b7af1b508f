// internal/store/dynamo.go
// Package store implements the record store adapter over DynamoDB, plus an
// in-memory implementation with the same contract for tests and local runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookvault/internal/catalog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bookRecord is the single-table shape of a book item. The pk embeds the
// tenant so no query can cross a tenant boundary.
type bookRecord struct {
	PK              string    `dynamodbav:"pk"`
	SK              string    `dynamodbav:"sk"`
	GSI1PK          string    `dynamodbav:"gsi1pk"`
	GSI1SK          string    `dynamodbav:"gsi1sk"`
	GSI2PK          string    `dynamodbav:"gsi2pk"`
	GSI2SK          string    `dynamodbav:"gsi2sk"`
	BookID          string    `dynamodbav:"book_id"`
	TenantID        string    `dynamodbav:"tenant_id"`
	ISBN            string    `dynamodbav:"isbn"`
	Title           string    `dynamodbav:"title"`
	Author          string    `dynamodbav:"author"`
	Publisher       string    `dynamodbav:"publisher"`
	Category        string    `dynamodbav:"category"`
	Description     string    `dynamodbav:"description"`
	CoverImageURL   string    `dynamodbav:"cover_image_url"`
	Language        string    `dynamodbav:"language"`
	Price           float64   `dynamodbav:"price"`
	Rating          float64   `dynamodbav:"rating"`
	StockQuantity   int       `dynamodbav:"stock_quantity"`
	PublicationYear int       `dynamodbav:"publication_year"`
	Pages           int       `dynamodbav:"pages"`
	Active          bool      `dynamodbav:"is_active"`
	CreatedAt       time.Time `dynamodbav:"created_at"`
	UpdatedAt       time.Time `dynamodbav:"updated_at"`
}

// Dynamo is the DynamoDB-backed record store.
type Dynamo struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

// NewDynamo creates a record store over the given table.
func NewDynamo(client *dynamodb.Client, table string, logger *zap.Logger) *Dynamo {
	return &Dynamo{client: client, table: table, logger: logger}
}

// Get reads one record by primary key, regardless of active state.
func (d *Dynamo) Get(ctx context.Context, key catalog.ItemKey) (*catalog.Book, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       itemKeyAttrs(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if out.Item == nil {
		return nil, catalog.ErrNotFound
	}

	var rec bookRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	book := rec.toBook()
	return &book, nil
}

// Put writes the record and its ISBN guard in one transaction. The guard put
// is conditional, so two concurrent creates for the same (tenant, ISBN)
// cannot both succeed.
func (d *Dynamo) Put(ctx context.Context, book *catalog.Book, keys catalog.KeySet) error {
	item, err := attributevalue.MarshalMap(toRecord(book, keys))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	guard := catalog.ISBNGuardKey(book.TenantID, book.ISBN)
	guardItem := map[string]types.AttributeValue{
		"pk":      &types.AttributeValueMemberS{Value: guard.PK},
		"sk":      &types.AttributeValueMemberS{Value: guard.SK},
		"book_id": &types.AttributeValueMemberS{Value: book.ID.String()},
	}

	_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(d.table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(d.table),
				Item:                guardItem,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			}},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return catalog.ErrDuplicateISBN
		}
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

// Update applies the patch as a single UpdateItem and returns the new state.
func (d *Dynamo) Update(ctx context.Context, key catalog.ItemKey, patch catalog.UpdatePatch) (*catalog.Book, error) {
	expr, names, values := buildUpdate(patch)

	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.table),
		Key:                       itemKeyAttrs(key),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(pk)"),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailure(err) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("update record: %w", err)
	}

	var rec bookRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal updated item: %w", err)
	}
	book := rec.toBook()
	return &book, nil
}

// SoftDelete flips the active flag and deletes the ISBN guard in one
// transaction, freeing the natural key for reuse.
func (d *Dynamo) SoftDelete(ctx context.Context, key, guard catalog.ItemKey, now time.Time) error {
	_, err := d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:           aws.String(d.table),
				Key:                 itemKeyAttrs(key),
				UpdateExpression:    aws.String("SET is_active = :inactive, updated_at = :now"),
				ConditionExpression: aws.String("attribute_exists(pk)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":inactive": &types.AttributeValueMemberBOOL{Value: false},
					":now":      &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
				},
			}},
			{Delete: &types.Delete{
				TableName: aws.String(d.table),
				Key:       itemKeyAttrs(guard),
			}},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return catalog.ErrNotFound
		}
		return fmt.Errorf("soft delete: %w", err)
	}
	return nil
}

// QueryByPrefix runs a begins_with key condition against a secondary index,
// following pagination until the result set is exhausted.
func (d *Dynamo) QueryByPrefix(ctx context.Context, index catalog.IndexName, partitionKey, sortKeyPrefix string, onlyActive bool) ([]catalog.Book, error) {
	pkAttr, skAttr := indexKeyAttrs(index)

	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		IndexName:              aws.String(string(index)),
		KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk AND begins_with(%s, :prefix)", pkAttr, skAttr)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: partitionKey},
			":prefix": &types.AttributeValueMemberS{Value: sortKeyPrefix},
		},
	}
	if onlyActive {
		input.FilterExpression = aws.String("is_active = :active")
		input.ExpressionAttributeValues[":active"] = &types.AttributeValueMemberBOOL{Value: true}
	}

	var books []catalog.Book
	for {
		out, err := d.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", index, err)
		}

		page, err := unmarshalBooks(out.Items)
		if err != nil {
			return nil, err
		}
		books = append(books, page...)

		if out.LastEvaluatedKey == nil {
			return books, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Scan enumerates records matching the predicate, following pagination. The
// tenant filter is always pushed down.
func (d *Dynamo) Scan(ctx context.Context, pred catalog.ScanPredicate) ([]catalog.Book, error) {
	filter, values := buildScanFilter(pred)

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(d.table),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: values,
	}

	var books []catalog.Book
	for {
		out, err := d.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		page, err := unmarshalBooks(out.Items)
		if err != nil {
			return nil, err
		}
		books = append(books, page...)

		if out.LastEvaluatedKey == nil {
			d.logger.Debug("scan complete",
				zap.String("tenant_id", pred.TenantID),
				zap.Int("count", len(books)),
			)
			return books, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func buildScanFilter(pred catalog.ScanPredicate) (string, map[string]types.AttributeValue) {
	parts := []string{"tenant_id = :tenant"}
	values := map[string]types.AttributeValue{
		":tenant": &types.AttributeValueMemberS{Value: pred.TenantID},
	}
	if pred.OnlyActive {
		parts = append(parts, "is_active = :active")
		values[":active"] = &types.AttributeValueMemberBOOL{Value: true}
	}
	if pred.BookID != "" {
		parts = append(parts, "book_id = :book_id")
		values[":book_id"] = &types.AttributeValueMemberS{Value: pred.BookID}
	}
	if pred.ISBN != "" {
		parts = append(parts, "isbn = :isbn")
		values[":isbn"] = &types.AttributeValueMemberS{Value: pred.ISBN}
	}
	if pred.MinRating > 0 {
		parts = append(parts, "rating >= :min_rating")
		values[":min_rating"] = &types.AttributeValueMemberN{
			Value: strconv.FormatFloat(pred.MinRating, 'f', -1, 64),
		}
	}
	return strings.Join(parts, " AND "), values
}

// buildUpdate renders the patch as a SET expression. Every attribute goes
// through an expression name so reserved words like "language" cannot break
// the expression.
func buildUpdate(patch catalog.UpdatePatch) (string, map[string]string, map[string]types.AttributeValue) {
	sets := []string{"#updated_at = :updated_at"}
	names := map[string]string{"#updated_at": "updated_at"}
	values := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: patch.UpdatedAt.Format(time.RFC3339Nano)},
	}

	set := func(attr string, av types.AttributeValue) {
		sets = append(sets, fmt.Sprintf("#%s = :%s", attr, attr))
		names["#"+attr] = attr
		values[":"+attr] = av
	}
	setStr := func(attr string, v *string) {
		if v != nil {
			set(attr, &types.AttributeValueMemberS{Value: *v})
		}
	}
	setNum := func(attr string, v float64, ok bool) {
		if ok {
			set(attr, &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'f', -1, 64)})
		}
	}

	setStr("title", patch.Title)
	setStr("author", patch.Author)
	setStr("publisher", patch.Publisher)
	setStr("category", patch.Category)
	setStr("description", patch.Description)
	setStr("cover_image_url", patch.CoverImageURL)
	setStr("language", patch.Language)
	setStr("gsi1sk", patch.CategoryKey)
	setStr("gsi2sk", patch.AuthorKey)
	if patch.Price != nil {
		setNum("price", *patch.Price, true)
	}
	if patch.Rating != nil {
		setNum("rating", *patch.Rating, true)
	}
	if patch.StockQuantity != nil {
		setNum("stock_quantity", float64(*patch.StockQuantity), true)
	}
	if patch.PublicationYear != nil {
		setNum("publication_year", float64(*patch.PublicationYear), true)
	}
	if patch.Pages != nil {
		setNum("pages", float64(*patch.Pages), true)
	}
	if patch.Active != nil {
		set("is_active", &types.AttributeValueMemberBOOL{Value: *patch.Active})
	}

	return "SET " + strings.Join(sets, ", "), names, values
}

func itemKeyAttrs(key catalog.ItemKey) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: key.PK},
		"sk": &types.AttributeValueMemberS{Value: key.SK},
	}
}

func indexKeyAttrs(index catalog.IndexName) (string, string) {
	if index == catalog.IndexAuthor {
		return "gsi2pk", "gsi2sk"
	}
	return "gsi1pk", "gsi1sk"
}

func unmarshalBooks(items []map[string]types.AttributeValue) ([]catalog.Book, error) {
	books := make([]catalog.Book, 0, len(items))
	for _, item := range items {
		var rec bookRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		books = append(books, rec.toBook())
	}
	return books, nil
}

// isConditionFailure reports whether err is a failed conditional write,
// either directly or as a cancelled transaction.
func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

func toRecord(b *catalog.Book, keys catalog.KeySet) bookRecord {
	return bookRecord{
		PK:              keys.PK,
		SK:              keys.SK,
		GSI1PK:          keys.GSI1PK,
		GSI1SK:          keys.GSI1SK,
		GSI2PK:          keys.GSI2PK,
		GSI2SK:          keys.GSI2SK,
		BookID:          b.ID.String(),
		TenantID:        b.TenantID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		Category:        b.Category,
		Description:     b.Description,
		CoverImageURL:   b.CoverImageURL,
		Language:        b.Language,
		Price:           b.Price,
		Rating:          b.Rating,
		StockQuantity:   b.StockQuantity,
		PublicationYear: b.PublicationYear,
		Pages:           b.Pages,
		Active:          b.Active,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (r bookRecord) toBook() catalog.Book {
	id, _ := uuid.Parse(r.BookID)
	return catalog.Book{
		ID:              id,
		TenantID:        r.TenantID,
		ISBN:            r.ISBN,
		Title:           r.Title,
		Author:          r.Author,
		Publisher:       r.Publisher,
		Category:        r.Category,
		Description:     r.Description,
		CoverImageURL:   r.CoverImageURL,
		Language:        r.Language,
		Price:           r.Price,
		Rating:          r.Rating,
		StockQuantity:   r.StockQuantity,
		PublicationYear: r.PublicationYear,
		Pages:           r.Pages,
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
