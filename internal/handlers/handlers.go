package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-commerce-backend/internal/customers"
	"github.com/imrishuroy/go-commerce-backend/internal/idempotency"
	"github.com/imrishuroy/go-commerce-backend/internal/orders"
	"github.com/imrishuroy/go-commerce-backend/internal/products"
)

// OrderService is the order workflow surface consumed by the HTTP layer.
type OrderService interface {
	Create(ctx context.Context, customerID string, items []orders.ItemInput) (*orders.Order, error)
	QuickCreate(ctx context.Context, customerID, productID string) (*orders.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*orders.Order, error)
	Delete(ctx context.Context, orderID string) error
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	List(ctx context.Context) ([]*orders.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*orders.Order, error)
}

// CustomerStore is the customer CRUD surface consumed by the HTTP layer.
type CustomerStore interface {
	Create(ctx context.Context, c *customers.Customer) error
	GetByID(ctx context.Context, id string) (*customers.Customer, error)
	List(ctx context.Context) ([]*customers.Customer, error)
	Update(ctx context.Context, c *customers.Customer) error
	Delete(ctx context.Context, id string) error
}

// ProductStore is the product CRUD surface consumed by the HTTP layer.
type ProductStore interface {
	Create(ctx context.Context, p *products.Product) error
	GetByID(ctx context.Context, id string) (*products.Product, error)
	List(ctx context.Context) ([]*products.Product, error)
	Update(ctx context.Context, p *products.Product) error
	Delete(ctx context.Context, id string) error
}

// IdempotencyStore guards order-create replays.
type IdempotencyStore interface {
	CreateIfNotExists(ctx context.Context, key, orderID string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// EventPublisher emits order lifecycle events.
type EventPublisher interface {
	SendOrderMessage(ctx context.Context, messageBody string, attributes map[string]string) error
}

// MetricsRecorder emits order counters.
type MetricsRecorder interface {
	OrderPlaced(ctx context.Context, total decimal.Decimal) error
	OrderDeleted(ctx context.Context) error
}

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	Orders      OrderService
	Customers   CustomerStore
	Products    ProductStore
	Idempotency IdempotencyStore
	Publisher   EventPublisher
	Metrics     MetricsRecorder
	Log         logrus.FieldLogger
}

// writeError maps workflow errors onto HTTP status signals: not found,
// conflict/insufficient resource, bad input, storage failure.
func writeError(c *gin.Context, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, customers.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "customer_not_found"})
	case errors.Is(err, products.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
	case errors.Is(err, orders.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient_stock", "detail": err.Error()})
	case errors.Is(err, orders.ErrNoItems),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_order", "detail": err.Error()})
	default:
		log.WithError(err).Error("storage failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_failure"})
	}
}
