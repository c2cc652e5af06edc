package aws

import (
	"context"
	"encoding/json"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// AttrEventType names the message attribute carrying the event type.
const (
	AttrEventType     = "event_type"
	EventOrderCreated = "order.created"
)

// OrderCreatedMessage is the payload sent from the API to the worker queue.
type OrderCreatedMessage struct {
	OrderID   string `json:"orderId"`
	ExpiresAt int64  `json:"expiresAt"`
	RequestID string `json:"requestId,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishOrderCreated announces a freshly minted order.
func (p *Publisher) PublishOrderCreated(ctx context.Context, orderID string, expiresAt int64) error {
	body, err := json.Marshal(OrderCreatedMessage{
		OrderID:   orderID,
		ExpiresAt: expiresAt,
		RequestID: RequestIDFromContext(ctx),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.SendMessage(ctx, string(body), map[string]string{
		AttrEventType: EventOrderCreated,
		"order_id":   orderID,
	})
}

// SendMessage sends messageBody to the queue; attributes are sent as
// String message attributes.
func (p *Publisher) SendMessage(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(p.QueueURL),
		MessageBody: sdkaws.String(messageBody),
	}
	if len(attributes) > 0 {
		msgAttrs := make(map[string]sqstypes.MessageAttributeValue, len(attributes))
		for k, v := range attributes {
			if v == "" {
				continue
			}
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    sdkaws.String("String"),
				StringValue: sdkaws.String(v),
			}
		}
		input.MessageAttributes = msgAttrs
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID stores a request id in ctx so outgoing messages can carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
