package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-commerce-backend/internal/customers"
	"github.com/imrishuroy/go-commerce-backend/internal/products"
)

// Order statuses. The set is open: UpdateStatus accepts any non-empty
// value, these are just the ones the system itself writes.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusCancelled = "cancelled"
)

// Order is a committed purchase. TotalAmount is derived from the item
// price snapshots at creation time, never supplied by the caller.
type Order struct {
	ID          string          `db:"id" json:"id"`
	CustomerID  string          `db:"customer_id" json:"customer_id"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	Customer *customers.Customer `db:"-" json:"customer,omitempty"`
	Items    []OrderItem         `db:"-" json:"items,omitempty"`
}

// OrderItem is one line of an order. UnitPrice is the price snapshot
// read inside the order transaction; it never tracks later price edits.
type OrderItem struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`

	Product *products.Product `db:"-" json:"product,omitempty"`
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID string
	Quantity  int
}
