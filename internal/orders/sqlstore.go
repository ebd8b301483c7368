package orders

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/imrishuroy/go-commerce-backend/internal/customers"
	"github.com/imrishuroy/go-commerce-backend/internal/products"
)

const orderColumns = `id, customer_id, total_amount, status, created_at, updated_at`
const itemColumns = `id, order_id, product_id, quantity, unit_price`
const productColumns = `id, name, description, price, stock, created_at, updated_at`

// SQLStore implements Store on MySQL through sqlx.
type SQLStore struct {
	db      *sqlx.DB
	nowFunc func() time.Time
}

// NewSQLStore creates a SQLStore.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, nowFunc: time.Now}
}

// Begin opens a database transaction wrapped in the Tx contract.
func (s *SQLStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	return &sqlTx{tx: tx, nowFunc: s.nowFunc}, nil
}

// OrderByID fetches one order with its customer and items resolved.
func (s *SQLStore) OrderByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := s.db.GetContext(ctx, &o,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	if err := s.resolve(ctx, []*Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders fetches all orders, newest first, fully resolved.
func (s *SQLStore) ListOrders(ctx context.Context) ([]*Order, error) {
	var out []*Order
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if err := s.resolve(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOrdersByCustomer fetches one customer's orders, newest first.
func (s *SQLStore) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*Order, error) {
	var out []*Order
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = ? ORDER BY created_at DESC`,
		customerID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by customer")
	}
	if err := s.resolve(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatusIf moves an order from expected to next only when it is
// still in the expected status. Used by the worker for duplicate-safe
// lifecycle transitions; the public updateStatus API does not go through
// here.
func (s *SQLStore) UpdateStatusIf(ctx context.Context, id, expected, next string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		next, s.nowFunc().UTC(), id, expected)
	if err != nil {
		return errors.Wrap(err, "conditional status update")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrStatusMismatch
	}
	return nil
}

// resolve eagerly attaches customers, items and item products to the
// given orders with batched follow-up queries.
func (s *SQLStore) resolve(ctx context.Context, out []*Order) error {
	if len(out) == 0 {
		return nil
	}

	orderIDs := make([]string, 0, len(out))
	customerIDs := make([]string, 0, len(out))
	byID := make(map[string]*Order, len(out))
	for _, o := range out {
		orderIDs = append(orderIDs, o.ID)
		customerIDs = append(customerIDs, o.CustomerID)
		byID[o.ID] = o
		o.Items = []OrderItem{}
	}

	// customers
	query, args, err := sqlx.In(
		`SELECT id, name, email, phone, address, created_at, updated_at
		 FROM customers WHERE id IN (?)`, customerIDs)
	if err != nil {
		return errors.Wrap(err, "build customers query")
	}
	var custs []*customers.Customer
	if err := s.db.SelectContext(ctx, &custs, s.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "resolve customers")
	}
	custByID := make(map[string]*customers.Customer, len(custs))
	for _, c := range custs {
		custByID[c.ID] = c
	}
	for _, o := range out {
		o.Customer = custByID[o.CustomerID]
	}

	// items
	query, args, err = sqlx.In(
		`SELECT `+itemColumns+` FROM order_items WHERE order_id IN (?)`, orderIDs)
	if err != nil {
		return errors.Wrap(err, "build items query")
	}
	var items []OrderItem
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "resolve order items")
	}
	if len(items) == 0 {
		return nil
	}

	// item products; a product deleted after purchase simply stays nil
	productIDs := make([]string, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}
	query, args, err = sqlx.In(
		`SELECT `+productColumns+` FROM products WHERE id IN (?)`, productIDs)
	if err != nil {
		return errors.Wrap(err, "build products query")
	}
	var prods []*products.Product
	if err := s.db.SelectContext(ctx, &prods, s.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "resolve products")
	}
	prodByID := make(map[string]*products.Product, len(prods))
	for _, p := range prods {
		prodByID[p.ID] = p
	}

	for _, it := range items {
		it.Product = prodByID[it.ProductID]
		o := byID[it.OrderID]
		o.Items = append(o.Items, it)
	}
	return nil
}

type sqlTx struct {
	tx      *sqlx.Tx
	nowFunc func() time.Time
}

func (t *sqlTx) CustomerByID(ctx context.Context, id string) (*customers.Customer, error) {
	var c customers.Customer
	err := t.tx.GetContext(ctx, &c,
		`SELECT id, name, email, phone, address, created_at, updated_at
		 FROM customers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customers.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query customer in tx")
	}
	return &c, nil
}

func (t *sqlTx) ProductForUpdate(ctx context.Context, id string) (*products.Product, error) {
	var p products.Product
	err := t.tx.GetContext(ctx, &p,
		`SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, products.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock product row")
	}
	return &p, nil
}

func (t *sqlTx) SetProductStock(ctx context.Context, id string, stock int) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`,
		stock, t.nowFunc().UTC(), id)
	return errors.Wrap(err, "set product stock")
}

func (t *sqlTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, o.TotalAmount, o.Status, o.CreatedAt, o.UpdatedAt)
	return errors.Wrap(err, "insert order")
}

func (t *sqlTx) InsertOrderItems(ctx context.Context, items []OrderItem) error {
	for _, it := range items {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO order_items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?)`,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice)
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}
	return nil
}

func (t *sqlTx) OrderForUpdate(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := t.tx.GetContext(ctx, &o,
		`SELECT `+orderColumns+` FROM orders WHERE id = ? FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock order row")
	}
	return &o, nil
}

func (t *sqlTx) OrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	var items []OrderItem
	err := t.tx.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "query order items in tx")
	}
	return items, nil
}

func (t *sqlTx) SetOrderStatus(ctx context.Context, id, status string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, t.nowFunc().UTC(), id)
	return errors.Wrap(err, "set order status")
}

func (t *sqlTx) DeleteOrderItems(ctx context.Context, orderID string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID)
	return errors.Wrap(err, "delete order items")
}

func (t *sqlTx) DeleteOrder(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return errors.Wrap(err, "delete order")
}

func (t *sqlTx) Commit() error {
	return errors.Wrap(t.tx.Commit(), "commit transaction")
}

func (t *sqlTx) Rollback() error {
	return t.tx.Rollback()
}
