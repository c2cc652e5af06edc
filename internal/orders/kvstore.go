package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/imrishuroy/vg-orderflow/internal/kv"
)

// KVStore keeps one serialized record per key in a kv.Binding. Each order is
// an independent key, so no locking is needed beyond the binding's own
// per-call atomicity.
type KVStore struct {
	binding   kv.Binding
	retention time.Duration
}

// NewKVStore creates a store over binding. retention is handed to the
// binding as a backend-side cleanup hint; it should comfortably exceed TTL
// so expired orders still read as expired rather than unknown.
func NewKVStore(binding kv.Binding, retention time.Duration) *KVStore {
	return &KVStore{binding: binding, retention: retention}
}

func (s *KVStore) Put(ctx context.Context, rec Record) error {
	if s.binding == nil {
		return ErrBackendUnavailable
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	return s.binding.Put(ctx, rec.OrderID, data, s.retention)
}

func (s *KVStore) Get(ctx context.Context, orderID string) (*Record, error) {
	if s.binding == nil {
		return nil, ErrBackendUnavailable
	}
	raw, err := s.binding.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &rec, nil
}
