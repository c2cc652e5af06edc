// Package kv provides string-keyed get/put bindings backed by DynamoDB,
// Redis or process memory.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks failures caused by a missing or unreachable backend.
var ErrUnavailable = errors.New("kv binding unavailable")

// Binding is a string-keyed get/put primitive. Get returns (nil, nil) for a
// missing key. A positive ttl lets the backend drop the value on its own
// schedule; readers must not rely on that happening.
type Binding interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
