package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/vg-orderflow/internal/aws"
)

// DynamoItem is the shape stored in the table. ExpiresAt is the table's TTL
// attribute, in epoch seconds.
type DynamoItem struct {
	Key       string `dynamodbav:"order_key"` // PK
	Value     string `dynamodbav:"value"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

// DynamoBinding stores one item per key in a single DynamoDB table.
type DynamoBinding struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamoBinding creates a binding over tableName.
func NewDynamoBinding(client aws.DynamoDBAPI, tableName string) *DynamoBinding {
	return &DynamoBinding{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get fetches the value stored under key. Returns (nil, nil) if not found.
func (b *DynamoBinding) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: sdkaws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			"order_key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: sdkaws.Bool(true),
	})
	if err != nil {
		return nil, classify("get item", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var it DynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return []byte(it.Value), nil
}

// Put writes value under key, overwriting any previous item.
func (b *DynamoBinding) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	it := DynamoItem{Key: key, Value: string(value)}
	if ttl > 0 {
		it.ExpiresAt = b.nowFunc().Add(ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	_, err = b.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: sdkaws.String(b.tableName),
		Item:      item,
	})
	if err != nil {
		return classify("put item", err)
	}
	return nil
}

// classify tags errors that mean the table itself is missing or unreachable.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException", "AccessDeniedException", "UnrecognizedClientException":
			return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
