package validation

import "github.com/shopspring/decimal"

// OrderItemRequest is a single requested order line.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"` // must be >= 1
}

// CreateOrderRequest is the payload for POST /api/orders. There is no
// amount field on purpose: the total is derived server-side from price
// snapshots inside the order transaction.
type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id" validate:"required"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"` // at least one item
}

// QuickOrderRequest is the payload for POST /api/customers/:id/orders:
// one item, quantity 1, customer taken from the path.
type QuickOrderRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// UpdateOrderStatusRequest carries the new free-form status value.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CustomerRequest is the payload for customer create/update.
type CustomerRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// ProductRequest is the payload for product create/update. Price is
// checked at struct level: validator tags cannot see inside a decimal.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
}
