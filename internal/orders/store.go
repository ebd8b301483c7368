package orders

import (
	"context"

	"github.com/imrishuroy/go-commerce-backend/internal/customers"
	"github.com/imrishuroy/go-commerce-backend/internal/products"
	"github.com/pkg/errors"
)

// Sentinel errors returned by the store and the workflow engine.
var (
	ErrNotFound          = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoItems           = errors.New("order must contain at least one item")
	ErrInvalidQuantity   = errors.New("item quantity must be positive")
	ErrInvalidStatus     = errors.New("order status must not be empty")

	// ErrStatusMismatch is returned by UpdateStatusIf when the order is
	// not in the expected status (or was deleted concurrently).
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
)

// Store is the durable side of the order workflow. Begin opens one
// atomic unit of work; the read methods resolve orders eagerly with
// their customer and items (each item with its product, when it still
// exists).
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	OrderByID(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context) ([]*Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*Order, error)
}

// Tx is one scoped transaction over the commerce tables. Every path out
// of a workflow must end in exactly one Commit or Rollback; writes are
// invisible to other transactions until Commit.
type Tx interface {
	// CustomerByID returns customers.ErrNotFound for a missing customer.
	CustomerByID(ctx context.Context, id string) (*customers.Customer, error)

	// ProductForUpdate reads a product row under an exclusive row lock,
	// so concurrent stock writes serialize. products.ErrNotFound when
	// the row is missing.
	ProductForUpdate(ctx context.Context, id string) (*products.Product, error)
	SetProductStock(ctx context.Context, id string, stock int) error

	InsertOrder(ctx context.Context, o *Order) error
	InsertOrderItems(ctx context.Context, items []OrderItem) error

	// OrderForUpdate reads an order row under an exclusive row lock.
	OrderForUpdate(ctx context.Context, id string) (*Order, error)
	OrderItems(ctx context.Context, orderID string) ([]OrderItem, error)
	SetOrderStatus(ctx context.Context, id, status string) error
	DeleteOrderItems(ctx context.Context, orderID string) error
	DeleteOrder(ctx context.Context, id string) error

	Commit() error
	Rollback() error
}
