// Package backend opens the order store selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/vg-orderflow/internal/aws"
	"github.com/imrishuroy/vg-orderflow/internal/config"
	"github.com/imrishuroy/vg-orderflow/internal/kv"
	"github.com/imrishuroy/vg-orderflow/internal/orders"
)

const redisKeyPrefix = "vg:"

// ErrNoAWSClients is returned when the dynamodb backend is selected without
// AWS clients.
var ErrNoAWSClients = errors.New("dynamodb backend requires aws clients")

// Backend is an opened order store plus the KV binding that sits beside it.
// For the file backend Binding is process memory.
type Backend struct {
	Name    string
	Store   orders.Store
	Binding kv.Binding

	closers []func() error
}

// Open builds the backend named by cfg.Backend. clients may be nil unless
// the dynamodb backend is selected.
func Open(ctx context.Context, cfg config.Config, clients *aws.AWSClients) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendFile:
		fs := orders.NewFileStore(cfg.StorePath)
		return &Backend{
			Name:    cfg.Backend,
			Store:   fs,
			Binding: kv.NewMemory(),
			closers: []func() error{fs.Close},
		}, nil

	case config.BackendDynamoDB:
		if clients == nil || clients.DynamoDB == nil {
			return nil, ErrNoAWSClients
		}
		binding := kv.NewDynamoBinding(clients.DynamoDB, cfg.OrdersTable)
		return &Backend{
			Name:    cfg.Backend,
			Store:   orders.NewKVStore(binding, cfg.KVRetention),
			Binding: binding,
		}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		binding := kv.NewRedisBinding(client, redisKeyPrefix)
		return &Backend{
			Name:    cfg.Backend,
			Store:   orders.NewKVStore(binding, cfg.KVRetention),
			Binding: binding,
			closers: []func() error{client.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unknown order backend %q", cfg.Backend)
	}
}

// Close releases whatever Open acquired. The file backend drains its write
// queue first.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
