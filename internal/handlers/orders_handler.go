package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/vg-orderflow/internal/idempotency"
	"github.com/imrishuroy/vg-orderflow/internal/orders"
	"github.com/imrishuroy/vg-orderflow/internal/validation"
)

//go:generate mockgen -destination=mocks/mock_order_service.go -package=mocks github.com/imrishuroy/vg-orderflow/internal/handlers OrderService

// OrderService is the order lifecycle the routes drive.
type OrderService interface {
	Create(ctx context.Context, sel orders.Selection) (orders.Receipt, error)
	Get(ctx context.Context, orderID string) (*orders.Record, error)
}

// HandlerConfig groups dependencies for the orders handler.
type HandlerConfig struct {
	Orders      OrderService
	Idempotency *idempotency.Store // optional
	Logger      *zap.Logger
}

type orderURI struct {
	OrderID string `uri:"orderId" binding:"required"`
}

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	api := r.Group("/api/orders")

	api.POST("", func(c *gin.Context) {
		ctx := c.Request.Context()

		var sel orders.Selection
		if err := validation.BindJSON(c, &sel); err != nil {
			// BindJSON already wrote the response
			return
		}

		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey != "" && cfg.Idempotency != nil {
			rec, err := cfg.Idempotency.Get(ctx, idempKey)
			if err != nil {
				log.Warn("idempotency lookup failed", zap.String("idempotency_key", idempKey), zap.Error(err))
			} else if rec != nil && rec.Status == idempotency.StatusDone {
				c.Header("Idempotent-Replay", "true")
				c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
				return
			}
		}

		receipt, err := cfg.Orders.Create(ctx, sel)
		if err != nil {
			log.Error("create order failed", zap.Error(err))
			if errors.Is(err, orders.ErrBackendUnavailable) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "store_unavailable", "message": "Order store binding is missing"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_failed", "message": "Failed to store order"})
			return
		}

		if idempKey != "" && cfg.Idempotency != nil {
			body, _ := json.Marshal(receipt)
			if err := cfg.Idempotency.MarkDone(ctx, idempKey, receipt.OrderID, body, http.StatusOK); err != nil {
				log.Warn("idempotency store failed", zap.String("idempotency_key", idempKey), zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, receipt)
	})

	getOrder := func(c *gin.Context) {
		var uri orderURI
		if err := c.ShouldBindUri(&uri); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_order_id", "message": "Order ID is required"})
			return
		}

		rec, err := cfg.Orders.Get(c.Request.Context(), uri.OrderID)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, rec)
		case errors.Is(err, orders.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_order_id", "message": "Order ID is required"})
		case errors.Is(err, orders.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found", "message": "Order not found"})
		case errors.Is(err, orders.ErrExpired):
			c.JSON(http.StatusGone, gin.H{"status": orders.StatusExpired})
		default:
			log.Error("read order failed", zap.String("order_id", uri.OrderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read_failed", "message": "Failed to read order"})
		}
	}
	api.GET("/", getOrder)
	api.GET("/:orderId", getOrder)
}

// RegisterFallbacks makes unknown routes and wrong methods answer in JSON.
func RegisterFallbacks(r *gin.Engine) {
	// a trailing-slash redirect would pre-empt the 405 on GET /api/orders
	r.RedirectTrailingSlash = false
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method_not_allowed", "message": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Not found"})
	})
}
