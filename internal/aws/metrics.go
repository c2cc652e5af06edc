package aws

import (
	"context"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsEmitter pushes order lifecycle counters to CloudWatch. Failures are
// logged and never surface to the caller.
type MetricsEmitter struct {
	client    CloudWatchAPI
	namespace string
	backend   string
	logger    *zap.Logger
	nowFunc   func() time.Time
}

// NewMetricsEmitter returns an emitter writing into namespace, tagging
// creations with the backend name.
func NewMetricsEmitter(client CloudWatchAPI, namespace, backend string, logger *zap.Logger) *MetricsEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsEmitter{
		client:    client,
		namespace: namespace,
		backend:   backend,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// OrderCreated records one minted order.
func (m *MetricsEmitter) OrderCreated(ctx context.Context) {
	m.put(ctx, "OrdersCreated", "Backend", m.backend)
}

// OrderLookup records one read, dimensioned by its outcome.
func (m *MetricsEmitter) OrderLookup(ctx context.Context, outcome string) {
	m.put(ctx, "OrderLookups", "Outcome", outcome)
}

func (m *MetricsEmitter) put(ctx context.Context, name, dimension, value string) {
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(name),
				Timestamp:  sdkaws.Time(m.nowFunc()),
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(1),
				Dimensions: []cwtypes.Dimension{
					{Name: sdkaws.String(dimension), Value: sdkaws.String(value)},
				},
			},
		},
	})
	if err != nil {
		m.logger.Warn("put metric data failed", zap.String("metric", name), zap.Error(err))
	}
}
