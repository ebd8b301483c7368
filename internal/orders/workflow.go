package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-commerce-backend/internal/products"
)

// Engine orchestrates the order lifecycle. Every multi-row operation
// runs inside a single scoped transaction: all stock decrements and
// order/item rows land together, or none of them do.
type Engine struct {
	store   Store
	log     logrus.FieldLogger
	nowFunc func() time.Time
}

// NewEngine creates an order workflow engine.
func NewEngine(store Store, log logrus.FieldLogger) *Engine {
	return &Engine{store: store, log: log, nowFunc: time.Now}
}

// Create validates, prices and commits an order for the given customer.
//
// Items are processed in input order: each product is read under a row
// lock, checked against the requested quantity, and its stock
// decremented. The unit price captured into the order item is the one
// read inside this transaction. Any failure rolls the whole unit back.
func (e *Engine) Create(ctx context.Context, customerID string, items []ItemInput) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, in := range items {
		if in.Quantity <= 0 {
			return nil, errors.Wrapf(ErrInvalidQuantity, "product %s", in.ProductID)
		}
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.CustomerByID(ctx, customerID); err != nil {
		return nil, err
	}

	now := e.nowFunc().UTC()
	order := &Order{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	total := decimal.Zero
	orderItems := make([]OrderItem, 0, len(items))
	for _, in := range items {
		p, err := tx.ProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if p.Stock < in.Quantity {
			return nil, errors.Wrapf(ErrInsufficientStock, "product %s has %d, want %d",
				p.ID, p.Stock, in.Quantity)
		}
		if err := tx.SetProductStock(ctx, p.ID, p.Stock-in.Quantity); err != nil {
			return nil, err
		}

		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
		orderItems = append(orderItems, OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: p.ID,
			Quantity:  in.Quantity,
			UnitPrice: p.Price,
		})
	}
	order.TotalAmount = total

	if err := tx.InsertOrder(ctx, order); err != nil {
		return nil, err
	}
	if err := tx.InsertOrderItems(ctx, orderItems); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.log.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"customer_id": customerID,
		"total":       order.TotalAmount.String(),
		"items":       len(orderItems),
	}).Info("order created")

	return e.store.OrderByID(ctx, order.ID)
}

// QuickCreate places a single-item order of quantity 1: same validation
// order and the same atomicity guarantee as Create.
func (e *Engine) QuickCreate(ctx context.Context, customerID, productID string) (*Order, error) {
	return e.Create(ctx, customerID, []ItemInput{{ProductID: productID, Quantity: 1}})
}

// UpdateStatus overwrites an order's status. The status set is open and
// no transition table is enforced; any non-empty value may replace any
// other. No stock side effects.
func (e *Engine) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	if status == "" {
		return nil, ErrInvalidStatus
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.OrderForUpdate(ctx, orderID); err != nil {
		return nil, err
	}
	if err := tx.SetOrderStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.log.WithFields(logrus.Fields{"order_id": orderID, "status": status}).
		Info("order status updated")

	return e.store.OrderByID(ctx, orderID)
}

// Delete removes an order with its items and restores the stock each
// item had reserved, atomically. A product deleted since purchase is
// tolerated: its restock is skipped, the rest of the deletion proceeds.
func (e *Engine) Delete(ctx context.Context, orderID string) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order, err := tx.OrderForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	items, err := tx.OrderItems(ctx, orderID)
	if err != nil {
		return err
	}

	for _, it := range items {
		p, err := tx.ProductForUpdate(ctx, it.ProductID)
		if errors.Is(err, products.ErrNotFound) {
			e.log.WithFields(logrus.Fields{
				"order_id":   orderID,
				"product_id": it.ProductID,
			}).Warn("product gone, skipping restock")
			continue
		}
		if err != nil {
			return err
		}
		if err := tx.SetProductStock(ctx, p.ID, p.Stock+it.Quantity); err != nil {
			return err
		}
	}

	if err := tx.DeleteOrderItems(ctx, orderID); err != nil {
		return err
	}
	if err := tx.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	e.log.WithFields(logrus.Fields{
		"order_id":    orderID,
		"customer_id": order.CustomerID,
		"items":       len(items),
	}).Info("order deleted, stock restored")
	return nil
}

// Get fetches one order with customer and items resolved.
func (e *Engine) Get(ctx context.Context, orderID string) (*Order, error) {
	return e.store.OrderByID(ctx, orderID)
}

// List fetches all orders. An empty result is a valid, empty slice.
func (e *Engine) List(ctx context.Context) ([]*Order, error) {
	out, err := e.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*Order{}
	}
	return out, nil
}

// ListByCustomer fetches one customer's orders.
func (e *Engine) ListByCustomer(ctx context.Context, customerID string) ([]*Order, error) {
	out, err := e.store.ListOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*Order{}
	}
	return out, nil
}
