package orders

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("order not found")
	// ErrExpired is returned when a record exists but is past its expiry.
	ErrExpired = errors.New("order expired")
	// ErrInvalidID is returned for an empty id.
	ErrInvalidID = errors.New("order id is required")
	// ErrBackendUnavailable is returned when no store is configured.
	ErrBackendUnavailable = errors.New("order store binding is missing")
)

// Store persists order records keyed by order id. Get returns (nil, nil)
// when the id is unknown.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, orderID string) (*Record, error)
}
