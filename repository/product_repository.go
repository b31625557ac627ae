package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"storefront-service/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	productIDCounter = "product_id"
	batchGetLimit    = 100
)

// DynamoAPI is the subset of the DynamoDB client used by the catalog.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ProductRepository is the catalog store. Product ids come from NextID and are never reused.
type ProductRepository interface {
	FindByID(ctx context.Context, id int) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []int) (map[int]*models.Product, error)
	List(ctx context.Context, visibleOnly bool, limit, skip int) ([]*models.Product, int64, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int) error
	NextID(ctx context.Context) (int, error)
}

// DynamoProductRepository stores products in a table keyed by numeric `product_id`
// and allocates ids from an atomic counter item in a second table.
type DynamoProductRepository struct {
	client        DynamoAPI
	table         string
	countersTable string
}

func NewDynamoProductRepository(client DynamoAPI, table, countersTable string) *DynamoProductRepository {
	return &DynamoProductRepository{client: client, table: table, countersTable: countersTable}
}

type ddbProduct struct {
	ProductID   int                         `dynamodbav:"product_id"`
	Name        string                      `dynamodbav:"name"`
	Category    string                      `dynamodbav:"category"`
	Description *string                     `dynamodbav:"description,omitempty"`
	Brand       *string                     `dynamodbav:"brand,omitempty"`
	Images      []string                    `dynamodbav:"images,omitempty"`
	Colors      []models.Variant            `dynamodbav:"colors,omitempty"`
	Sizes       []models.Variant            `dynamodbav:"sizes,omitempty"`
	Visible     bool                        `dynamodbav:"visible"`
	Available   bool                        `dynamodbav:"available"`
	Prices      map[string]models.PricePair `dynamodbav:"prices"`
	CreatedAt   string                      `dynamodbav:"created_at"`
	UpdatedAt   string                      `dynamodbav:"updated_at"`
}

func toDDB(p *models.Product) ddbProduct {
	dp := ddbProduct{
		ProductID: p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Images:    p.Images,
		Colors:    p.Colors,
		Sizes:     p.Sizes,
		Visible:   p.Visible,
		Available: p.Available,
		Prices:    make(map[string]models.PricePair, len(p.Prices)),
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.Description != "" {
		dp.Description = &p.Description
	}
	if p.Brand != "" {
		dp.Brand = &p.Brand
	}
	for c, pair := range p.Prices {
		dp.Prices[string(c)] = pair
	}
	return dp
}

func fromDDB(dp ddbProduct) *models.Product {
	p := &models.Product{
		ID:        dp.ProductID,
		Name:      dp.Name,
		Category:  dp.Category,
		Images:    dp.Images,
		Colors:    dp.Colors,
		Sizes:     dp.Sizes,
		Visible:   dp.Visible,
		Available: dp.Available,
		Prices:    make(map[models.CurrencyCode]models.PricePair, len(dp.Prices)),
	}
	if dp.Description != nil {
		p.Description = *dp.Description
	}
	if dp.Brand != nil {
		p.Brand = *dp.Brand
	}
	for c, pair := range dp.Prices {
		p.Prices[models.CurrencyCode(c)] = pair
	}
	if t, err := time.Parse(time.RFC3339, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, dp.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p
}

func productKey(id int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"product_id": &types.AttributeValueMemberN{Value: strconv.Itoa(id)},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (d *DynamoProductRepository) FindByID(ctx context.Context, id int) (*models.Product, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: productKey(id)})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return fromDDB(dp), nil
}

// FindByIDs batch-loads products. Ids that do not resolve are absent from the result.
func (d *DynamoProductRepository) FindByIDs(ctx context.Context, ids []int) (map[int]*models.Product, error) {
	result := make(map[int]*models.Product, len(ids))
	seen := make(map[int]struct{}, len(ids))
	var keys []map[string]types.AttributeValue
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, productKey(id))
	}

	for start := 0; start < len(keys); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(keys) {
			end = len(keys)
		}
		pending := map[string]types.KeysAndAttributes{d.table: {Keys: keys[start:end]}}
		for len(pending) > 0 {
			out, err := d.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, fmt.Errorf("dynamodb BatchGetItem failed: %w", err)
			}
			for _, item := range out.Responses[d.table] {
				var dp ddbProduct
				if err := attributevalue.UnmarshalMap(item, &dp); err != nil {
					return nil, fmt.Errorf("unmarshal item: %w", err)
				}
				result[dp.ProductID] = fromDDB(dp)
			}
			pending = out.UnprocessedKeys
		}
	}
	return result, nil
}

// List scans the table and returns one page ordered by id, plus the total matching count.
func (d *DynamoProductRepository) List(ctx context.Context, visibleOnly bool, limit, skip int) ([]*models.Product, int64, error) {
	input := &dynamodb.ScanInput{TableName: &d.table}
	if visibleOnly {
		input.FilterExpression = aws.String("visible = :v")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberBOOL{Value: true},
		}
	}

	var all []*models.Product
	paginator := dynamodb.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, 0, fmt.Errorf("unmarshal item: %w", err)
			}
			all = append(all, fromDDB(dp))
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if skip >= len(all) {
		return []*models.Product{}, total, nil
	}
	all = all[skip:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (d *DynamoProductRepository) Create(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if isConditionFailed(err) {
		return ErrProductExists
	}
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// Update replaces an existing product.
func (d *DynamoProductRepository) Update(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoProductRepository) Delete(ctx context.Context, id int) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &d.table,
		Key:                 productKey(id),
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("dynamodb DeleteItem failed: %w", err)
	}
	return nil
}

// NextID atomically increments the product id counter and returns the new value.
func (d *DynamoProductRepository) NextID(ctx context.Context) (int, error) {
	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &d.countersTable,
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: productIDCounter},
		},
		UpdateExpression:         aws.String("ADD #v :one"),
		ExpressionAttributeNames: map[string]string{"#v": "value"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("dynamodb UpdateItem failed: %w", err)
	}
	var counter struct {
		Value int `dynamodbav:"value"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &counter); err != nil {
		return 0, fmt.Errorf("unmarshal counter: %w", err)
	}
	return counter.Value, nil
}
