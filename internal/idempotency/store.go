package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imrishuroy/vg-orderflow/internal/kv"
)

// ErrEmptyKey is returned for a blank idempotency key.
var ErrEmptyKey = errors.New("idempotency key is empty")

// Store remembers create responses by client-supplied key so a retried POST
// replays the original receipt instead of minting a second order. Lookup and
// remember are separate calls: two concurrent first attempts with one key can
// still both create.
type Store struct {
	binding   kv.Binding
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a Store over binding. ttlWindow bounds how long a key
// replays; there is no point in replaying a receipt for an expired order.
func NewStore(binding kv.Binding, ttlWindow time.Duration) *Store {
	return &Store{
		binding:   binding,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Get retrieves an idempotency record by key. If not found or lapsed, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*IdempotencyRecord, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	raw, err := s.binding.Get(ctx, keyPrefix+key)
	if err != nil {
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var rec IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal idempotency record: %w", err)
	}
	if rec.ExpiresAt > 0 && s.nowFunc().Unix() > rec.ExpiresAt {
		return nil, nil
	}
	return &rec, nil
}

// MarkDone stores the response produced for key.
func (s *Store) MarkDone(ctx context.Context, key, orderID string, responseBody []byte, responseStatus int) error {
	if key == "" {
		return ErrEmptyKey
	}
	now := s.nowFunc()
	rec := IdempotencyRecord{
		IdempotencyKey: key,
		Status:         StatusDone,
		OrderID:        orderID,
		ResponseBody:   string(responseBody),
		ResponseStatus: responseStatus,
		CreatedAt:      now.UTC(),
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := s.binding.Put(ctx, keyPrefix+key, raw, s.ttlWindow); err != nil {
		return fmt.Errorf("put idempotency record: %w", err)
	}
	return nil
}
