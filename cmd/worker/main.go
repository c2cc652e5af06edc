package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/vg-orderflow/internal/aws"
	"github.com/imrishuroy/vg-orderflow/internal/backend"
	"github.com/imrishuroy/vg-orderflow/internal/config"
	"github.com/imrishuroy/vg-orderflow/internal/logger"
	"github.com/imrishuroy/vg-orderflow/internal/orders"
	"github.com/imrishuroy/vg-orderflow/internal/pos"
	"github.com/imrishuroy/vg-orderflow/internal/pricing"
	"github.com/imrishuroy/vg-orderflow/internal/telemetry"
	"github.com/imrishuroy/vg-orderflow/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	ctx := context.Background()
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if cfg.POSCatalogPath == "" {
		logr.Fatal("POS_CATALOG_PATH is required")
	}
	v := validation.New()
	catalog, err := pos.LoadCatalog(cfg.POSCatalogPath, v)
	if err != nil {
		logr.Fatal("failed to load pos catalog", zap.Error(err))
	}

	var clients *aws.AWSClients
	if cfg.Backend == config.BackendDynamoDB {
		clients, err = aws.NewAWSClients(ctx, aws.Settings{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			logr.Fatal("failed to init aws clients", zap.Error(err))
		}
	}
	be, err := backend.Open(ctx, cfg, clients)
	if err != nil {
		logr.Fatal("failed to open order backend", zap.Error(err))
	}
	defer func() { _ = be.Close() }()

	// the worker only reads, so the price table never matters here
	svc := orders.NewService(be.Store, pricing.DefaultTable(), orders.WithLogger(logr))
	p := NewProcessor(svc, catalog, logr)

	// If RUN_LOCAL=true, process a single event built from LOCAL_SQS_BODY instead of starting the lambda runtime.
	if cfg.RunLocal {
		event := events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local", Body: localBody()}},
		}
		if err := p.Handle(ctx, event); err != nil {
			logr.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
