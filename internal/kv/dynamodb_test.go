package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// mockDynamo is a simple in-memory table keyed by order_key.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := params.Item["order_key"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("no primary key in put item")
	}
	m.items[v.Value] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := params.Key["order_key"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("no key attribute")
	}
	item, ok := m.items[v.Value]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func TestDynamoBinding_PutGet(t *testing.T) {
	mock := newMockDynamo()
	b := NewDynamoBinding(mock, "orders")
	now := time.Unix(1700000000, 0)
	b.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	if err := b.Put(ctx, "VG-AAAA0000", []byte(`{"price":1}`), 24*time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := b.Get(ctx, "VG-AAAA0000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"price":1}` {
		t.Fatalf("value mismatch: %s", got)
	}

	var it DynamoItem
	if err := attributevalue.UnmarshalMap(mock.items["VG-AAAA0000"], &it); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if it.ExpiresAt != now.Add(24*time.Hour).Unix() {
		t.Fatalf("expected TTL attribute %d, got %d", now.Add(24*time.Hour).Unix(), it.ExpiresAt)
	}
}

func TestDynamoBinding_Missing(t *testing.T) {
	b := NewDynamoBinding(newMockDynamo(), "orders")
	got, err := b.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing key, got %s", got)
	}
}

func TestDynamoBinding_MissingTableIsUnavailable(t *testing.T) {
	mock := newMockDynamo()
	mock.err = &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "table not found"}
	b := NewDynamoBinding(mock, "orders")

	err := b.Put(context.Background(), "k", []byte("v"), 0)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	_, err = b.Get(context.Background(), "k")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
