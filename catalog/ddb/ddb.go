// Package ddb implements catalog.Catalog on DynamoDB.
//
// DynamoDB provides the compare-and-swap semantics that object stores lack:
// every version is committed with a conditional write, so concurrent
// writers of the same array cannot overwrite each other.
//
// Table schema:
//   - Partition key: name (string) - the archived array name
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name szgo-catalog \
//	  --attribute-definitions AttributeName=name,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=name,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package ddb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/szgo/catalog"
)

// Attribute names.
const (
	attrName        = "name"
	attrVersion     = "version"
	attrBlob        = "blob"
	attrDims        = "dims"
	attrElementSize = "element_size"
	attrCompression = "compression"
	attrErrorBound  = "error_bound"
	attrBytes       = "bytes"
	attrCreatedAt   = "created_at"
)

// Client is the interface for DynamoDB operations. *dynamodb.Client satisfies it.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Catalog stores entries in a DynamoDB table.
type Catalog struct {
	client    Client
	tableName string
}

// New creates a catalog backed by tableName.
func New(client Client, tableName string) *Catalog {
	return &Catalog{client: client, tableName: tableName}
}

// NewFromConfig loads the default AWS configuration and creates a catalog.
func NewFromConfig(ctx context.Context, tableName string, optFns ...func(*config.LoadOptions) error) (*Catalog, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("ddb: load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), tableName), nil
}

// Commit writes e if its version does not exist yet.
func (c *Catalog) Commit(ctx context.Context, e catalog.Entry) error {
	if err := catalog.Validate(e); err != nil {
		return err
	}

	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                marshal(e),
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return catalog.ErrConcurrentModification
		}
		return fmt.Errorf("ddb: commit %s@%d: %w", e.Name, e.Version, err)
	}
	return nil
}

// Get returns name at version, or the latest version when version is 0.
func (c *Catalog) Get(ctx context.Context, name string, version uint64) (catalog.Entry, error) {
	if version == 0 {
		return c.latest(ctx, name)
	}

	resp, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key:       key(name, version),
	})
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("ddb: get %s@%d: %w", name, version, err)
	}
	if len(resp.Item) == 0 {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return unmarshal(resp.Item)
}

func (c *Catalog) latest(ctx context.Context, name string) (catalog.Entry, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("#n = :n"),
		ExpressionAttributeNames: map[string]string{
			"#n": attrName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberS{Value: name},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("ddb: query %s: %w", name, err)
	}
	if len(resp.Items) == 0 {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return unmarshal(resp.Items[0])
}

// Versions returns every version of name in ascending order.
func (c *Catalog) Versions(ctx context.Context, name string) ([]catalog.Entry, error) {
	paginator := dynamodb.NewQueryPaginator(c.client, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("#n = :n"),
		ExpressionAttributeNames: map[string]string{
			"#n": attrName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberS{Value: name},
		},
		ScanIndexForward: aws.Bool(true),
	})

	var out []catalog.Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ddb: query %s: %w", name, err)
		}
		for _, item := range page.Items {
			e, err := unmarshal(item)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, catalog.ErrNotFound
	}
	return out, nil
}

// Delete removes every version of name.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	versions, err := c.Versions(ctx, name)
	if err != nil {
		return err
	}
	for _, e := range versions {
		if _, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key:       key(name, e.Version),
		}); err != nil {
			return fmt.Errorf("ddb: delete %s@%d: %w", name, e.Version, err)
		}
	}
	return nil
}

// List scans the table and returns the latest version of each name with prefix.
func (c *Catalog) List(ctx context.Context, prefix string) ([]catalog.Entry, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(c.tableName),
	}
	if prefix != "" {
		input.FilterExpression = aws.String("begins_with(#n, :p)")
		input.ExpressionAttributeNames = map[string]string{"#n": attrName}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: prefix},
		}
	}

	latest := make(map[string]catalog.Entry)
	paginator := dynamodb.NewScanPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ddb: scan: %w", err)
		}
		for _, item := range page.Items {
			e, err := unmarshal(item)
			if err != nil {
				return nil, err
			}
			if cur, ok := latest[e.Name]; !ok || e.Version > cur.Version {
				latest[e.Name] = e
			}
		}
	}

	out := make([]catalog.Entry, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func key(name string, version uint64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrName:    &types.AttributeValueMemberS{Value: name},
		attrVersion: &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
	}
}

func marshal(e catalog.Entry) map[string]types.AttributeValue {
	dims := make([]types.AttributeValue, len(e.Dims))
	for i, d := range e.Dims {
		dims[i] = &types.AttributeValueMemberN{Value: strconv.Itoa(d)}
	}

	item := key(e.Name, e.Version)
	item[attrBlob] = &types.AttributeValueMemberS{Value: e.Blob}
	item[attrDims] = &types.AttributeValueMemberL{Value: dims}
	item[attrElementSize] = &types.AttributeValueMemberN{Value: strconv.Itoa(e.ElementSize)}
	item[attrCompression] = &types.AttributeValueMemberS{Value: e.Compression}
	item[attrErrorBound] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(e.ErrorBound, 'g', -1, 64)}
	item[attrBytes] = &types.AttributeValueMemberN{Value: strconv.FormatInt(e.Bytes, 10)}
	item[attrCreatedAt] = &types.AttributeValueMemberS{Value: e.CreatedAt.UTC().Format(time.RFC3339Nano)}
	return item
}

func unmarshal(item map[string]types.AttributeValue) (catalog.Entry, error) {
	var (
		e   catalog.Entry
		err error
	)

	if e.Name, err = stringAttr(item, attrName); err != nil {
		return e, err
	}
	if e.Version, err = uintAttr(item, attrVersion); err != nil {
		return e, err
	}
	if e.Blob, err = stringAttr(item, attrBlob); err != nil {
		return e, err
	}
	if e.Compression, err = stringAttr(item, attrCompression); err != nil {
		return e, err
	}

	es, err := intAttr(item, attrElementSize)
	if err != nil {
		return e, err
	}
	e.ElementSize = int(es)

	if e.Bytes, err = intAttr(item, attrBytes); err != nil {
		return e, err
	}

	eb, ok := item[attrErrorBound].(*types.AttributeValueMemberN)
	if !ok {
		return e, fmt.Errorf("ddb: invalid %s attribute", attrErrorBound)
	}
	if e.ErrorBound, err = strconv.ParseFloat(eb.Value, 64); err != nil {
		return e, fmt.Errorf("ddb: parse %s: %w", attrErrorBound, err)
	}

	dims, ok := item[attrDims].(*types.AttributeValueMemberL)
	if !ok {
		return e, fmt.Errorf("ddb: invalid %s attribute", attrDims)
	}
	e.Dims = make([]int, len(dims.Value))
	for i, v := range dims.Value {
		n, ok := v.(*types.AttributeValueMemberN)
		if !ok {
			return e, fmt.Errorf("ddb: invalid %s attribute", attrDims)
		}
		d, err := strconv.Atoi(n.Value)
		if err != nil {
			return e, fmt.Errorf("ddb: parse %s: %w", attrDims, err)
		}
		e.Dims[i] = d
	}

	created, err := stringAttr(item, attrCreatedAt)
	if err != nil {
		return e, err
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return e, fmt.Errorf("ddb: parse %s: %w", attrCreatedAt, err)
	}

	return e, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("ddb: invalid %s attribute", name)
	}
	return v.Value, nil
}

func uintAttr(item map[string]types.AttributeValue, name string) (uint64, error) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("ddb: invalid %s attribute", name)
	}
	n, err := strconv.ParseUint(v.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ddb: parse %s: %w", name, err)
	}
	return n, nil
}

func intAttr(item map[string]types.AttributeValue, name string) (int64, error) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("ddb: invalid %s attribute", name)
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ddb: parse %s: %w", name, err)
	}
	return n, nil
}

var _ catalog.Catalog = (*Catalog)(nil)
