package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/vg-orderflow/internal/aws"
	"github.com/imrishuroy/vg-orderflow/internal/orders"
	"github.com/imrishuroy/vg-orderflow/internal/pos"
)

// OrderReader loads an order with expiry applied.
type OrderReader interface {
	Get(ctx context.Context, orderID string) (*orders.Record, error)
}

// Processor turns order.created events into POS line items.
type Processor struct {
	orders  OrderReader
	catalog pos.Catalog
	logger  *zap.Logger
}

// NewProcessor creates a worker processor.
func NewProcessor(reader OrderReader, catalog pos.Catalog, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{orders: reader, catalog: catalog, logger: logger}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			p.logger.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	if ev, ok := rec.MessageAttributes[aws.AttrEventType]; ok && ev.StringValue != nil && *ev.StringValue != aws.EventOrderCreated {
		p.logger.Debug("ignoring event", zap.String("event", *ev.StringValue))
		return nil
	}

	var msg aws.OrderCreatedMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID == "" {
		return errors.New("invalid message body: missing orderId")
	}

	log := p.logger.With(zap.String("order_id", msg.OrderID), zap.String("request_id", msg.RequestID))

	order, err := p.orders.Get(ctx, msg.OrderID)
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrExpired):
		// nothing left to ring up
		log.Info("skipping order", zap.Error(err))
		return nil
	case err != nil:
		return fmt.Errorf("failed to fetch order: %w", err)
	}

	item, err := pos.Resolve(p.catalog, *order)
	if err != nil {
		return fmt.Errorf("resolve order %s: %w", msg.OrderID, err)
	}

	log.Info("pos line item",
		zap.String("product_id", item.ProductID),
		zap.Strings("option_ids", item.OptionIDs),
		zap.Int("price", item.Price),
	)
	return nil
}
