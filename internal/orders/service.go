package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/imrishuroy/vg-orderflow/internal/pricing"
)

// EventPublisher announces newly created orders.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, orderID string, expiresAt int64) error
}

// Recorder receives order lifecycle counters.
type Recorder interface {
	OrderCreated(ctx context.Context)
	OrderLookup(ctx context.Context, outcome string)
}

// Service prices, mints and stores orders, and applies expiry on read. It is
// independent of the backing store.
type Service struct {
	store     Store
	table     pricing.Table
	publisher EventPublisher
	recorder  Recorder
	logger    *zap.Logger
	tracer    trace.Tracer
	newID     func() string
	nowFunc   func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sets the publisher notified after each create.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.nowFunc = now }
}

// WithIDGenerator overrides the order id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a Service over store, pricing with table. A nil store
// makes every call fail with ErrBackendUnavailable.
func NewService(store Store, table pricing.Table, opts ...Option) *Service {
	s := &Service{
		store:   store,
		table:   table,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("github.com/imrishuroy/vg-orderflow/internal/orders"),
		newID:   NewOrderID,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize prices sel and builds the record it would persist, without an id
// or timestamps.
func (s *Service) Normalize(sel Selection) Record {
	size, _ := sel.Size.(string)
	in := pricing.Input{
		Cacao:   sel.Cacao,
		Iced:    pricing.Truthy(sel.IsIced),
		Size:    size,
		Topping: pricing.Truthy(sel.HasTopping),
	}
	var shots *int
	if sel.ShotCount != nil {
		// counts outside 0..MaxShots are dropped like non-numeric ones
		if n, ok := pricing.Number(sel.ShotCount); ok && n >= 0 && n <= pricing.MaxShots {
			v := int(n)
			shots = &v
			in.Shots = v
		}
	}
	q := s.table.Price(in)

	return Record{
		CacaoNormalized: q.Tier,
		IsIced:          in.Iced,
		Size:            q.Size,
		HasTopping:      in.Topping,
		ShotCount:       shots,
		Price:           q.Price,
		Status:          StatusPending,
	}
}

// Create prices sel, mints an id and persists the record. Nothing is
// returned unless the write succeeded.
func (s *Service) Create(ctx context.Context, sel Selection) (Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "orders.create")
	defer span.End()

	if s.store == nil {
		span.SetStatus(codes.Error, ErrBackendUnavailable.Error())
		return Receipt{}, ErrBackendUnavailable
	}

	rec := s.Normalize(sel)
	now := s.nowFunc().UnixMilli()
	rec.OrderID = s.newID()
	rec.CreatedAt = now
	rec.ExpiresAt = now + TTL.Milliseconds()
	span.SetAttributes(
		attribute.String("order.id", rec.OrderID),
		attribute.String("order.tier", rec.CacaoNormalized),
		attribute.Int("order.price", rec.Price),
	)

	if err := s.store.Put(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store order")
		return Receipt{}, fmt.Errorf("store order %s: %w", rec.OrderID, err)
	}

	if s.recorder != nil {
		s.recorder.OrderCreated(ctx)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, rec.OrderID, rec.ExpiresAt); err != nil {
			// the order exists either way; consumers can still poll it
			s.logger.Warn("publish order created failed", zap.String("order_id", rec.OrderID), zap.Error(err))
		}
	}

	s.logger.Info("order created",
		zap.String("order_id", rec.OrderID),
		zap.String("cacao", rec.CacaoNormalized),
		zap.String("size", rec.Size),
		zap.Int("price", rec.Price),
	)

	return Receipt{OrderID: rec.OrderID, Price: rec.Price, ExpiresAt: rec.ExpiresAt}, nil
}

// Get returns the stored record for orderID. It returns ErrInvalidID for a
// blank id, ErrNotFound for an unknown one and ErrExpired once the record is
// past its expiry; the stored status is never rewritten.
func (s *Service) Get(ctx context.Context, orderID string) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "orders.get", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if strings.TrimSpace(orderID) == "" {
		return nil, ErrInvalidID
	}
	if s.store == nil {
		span.SetStatus(codes.Error, ErrBackendUnavailable.Error())
		return nil, ErrBackendUnavailable
	}

	rec, err := s.store.Get(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read order")
		return nil, fmt.Errorf("read order %s: %w", orderID, err)
	}

	var outcome string
	switch {
	case rec == nil:
		outcome, err = LookupNotFound, ErrNotFound
	case rec.Expired(s.nowFunc()):
		outcome, err = LookupExpired, ErrExpired
		rec = nil
	default:
		outcome = LookupFound
	}
	span.SetAttributes(attribute.String("order.lookup", outcome))
	if s.recorder != nil {
		s.recorder.OrderLookup(ctx, outcome)
	}
	if err != nil {
		s.logger.Debug("order lookup", zap.String("order_id", orderID), zap.String("outcome", outcome))
		return nil, err
	}
	return rec, nil
}

// IsClientError reports whether err is caused by the caller rather than the
// backend.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidID) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired)
}
