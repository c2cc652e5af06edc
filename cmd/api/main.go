package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/imrishuroy/vg-orderflow/internal/aws"
	"github.com/imrishuroy/vg-orderflow/internal/backend"
	"github.com/imrishuroy/vg-orderflow/internal/config"
	"github.com/imrishuroy/vg-orderflow/internal/handlers"
	"github.com/imrishuroy/vg-orderflow/internal/idempotency"
	"github.com/imrishuroy/vg-orderflow/internal/logger"
	"github.com/imrishuroy/vg-orderflow/internal/metrics"
	"github.com/imrishuroy/vg-orderflow/internal/orders"
	"github.com/imrishuroy/vg-orderflow/internal/pricing"
	"github.com/imrishuroy/vg-orderflow/internal/telemetry"
	"github.com/imrishuroy/vg-orderflow/internal/validation"
)

type routerDeps struct {
	handlers handlers.HandlerConfig
	metrics  *metrics.ServerMetrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

func setupRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestID(), handlers.Tracing(), handlers.AccessLog(d.logger))
	if d.metrics != nil {
		r.Use(handlers.Metrics(d.metrics))
	}
	handlers.RegisterFallbacks(r)

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.gatherer)))
	}

	handlers.RegisterOrdersRoutes(r, d.handlers)

	return r
}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logr.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	var clients *aws.AWSClients
	if cfg.Backend == config.BackendDynamoDB || cfg.QueueURL != "" || cfg.MetricsNamespace != "" {
		clients, err = aws.NewAWSClients(ctx, aws.Settings{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			logr.Fatal("failed to init aws clients", zap.Error(err))
		}
	}

	be, err := backend.Open(ctx, cfg, clients)
	if err != nil {
		logr.Fatal("failed to open order backend", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer func() {
		if err := be.Close(); err != nil {
			logr.Error("close order backend", zap.Error(err))
		}
	}()

	table := pricing.DefaultTable()
	if cfg.PricingTablePath != "" {
		table, err = pricing.LoadTable(cfg.PricingTablePath, validation.New())
		if err != nil {
			logr.Fatal("failed to load price table", zap.String("path", cfg.PricingTablePath), zap.Error(err))
		}
	}

	opts := []orders.Option{orders.WithLogger(logr)}
	if cfg.QueueURL != "" {
		opts = append(opts, orders.WithPublisher(aws.NewPublisher(clients.SQS, cfg.QueueURL)))
	}
	if cfg.MetricsNamespace != "" {
		opts = append(opts, orders.WithRecorder(aws.NewMetricsEmitter(clients.CloudWatch, cfg.MetricsNamespace, be.Name, logr)))
	}
	svc := orders.NewService(be.Store, table, opts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := routerDeps{
		handlers: handlers.HandlerConfig{
			Orders:      svc,
			Idempotency: idempotency.NewStore(be.Binding, orders.TTL),
			Logger:      logr,
		},
		metrics: metrics.NewServerMetrics(reg),
		logger:  logr,
	}
	if cfg.RunLocal {
		deps.gatherer = reg
	}
	r := setupRouter(deps)

	// if RUN_LOCAL is set, serve plain HTTP for development instead of starting the lambda runtime.
	if cfg.RunLocal {
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logr.Error("server shutdown", zap.Error(err))
			}
		}()

		logr.Info("running local server", zap.String("addr", srv.Addr), zap.String("backend", be.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.StartWithOptions(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	}, lambda.WithEnableSIGTERM(func() { _ = be.Close() }))
}
