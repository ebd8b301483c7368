package orders

import (
	"context"
	"sync"

	"github.com/imrishuroy/go-commerce-backend/internal/customers"
	"github.com/imrishuroy/go-commerce-backend/internal/products"
)

// memStore is an in-memory Store for engine tests. Begin takes the
// store-wide mutex and holds it until Commit or Rollback, which gives
// the same serialization the SQL store gets from row locks, only
// coarser. A transaction works on copies and publishes them on Commit,
// so an abandoned transaction leaves the shared state untouched.
type memStore struct {
	mu        sync.Mutex
	customers map[string]customers.Customer
	products  map[string]products.Product
	orders    map[string]Order
	items     map[string]OrderItem
}

func newMemStore() *memStore {
	return &memStore{
		customers: map[string]customers.Customer{},
		products:  map[string]products.Product{},
		orders:    map[string]Order{},
		items:     map[string]OrderItem{},
	}
}

func (s *memStore) addCustomer(c customers.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *memStore) addProduct(p products.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *memStore) removeProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *memStore) stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) itemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{
		store:     s,
		customers: copyMap(s.customers),
		products:  copyMap(s.products),
		orders:    copyMap(s.orders),
		items:     copyMap(s.items),
	}, nil
}

func (s *memStore) OrderByID(ctx context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.resolve(o), nil
}

func (s *memStore) ListOrders(ctx context.Context) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Order
	for _, o := range s.orders {
		out = append(out, s.resolve(o))
	}
	return out, nil
}

func (s *memStore) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, s.resolve(o))
		}
	}
	return out, nil
}

// resolve must be called with the mutex held.
func (s *memStore) resolve(o Order) *Order {
	if c, ok := s.customers[o.CustomerID]; ok {
		cc := c
		o.Customer = &cc
	}
	o.Items = []OrderItem{}
	for _, it := range s.items {
		if it.OrderID != o.ID {
			continue
		}
		if p, ok := s.products[it.ProductID]; ok {
			pp := p
			it.Product = &pp
		}
		o.Items = append(o.Items, it)
	}
	return &o
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type memTx struct {
	store     *memStore
	customers map[string]customers.Customer
	products  map[string]products.Product
	orders    map[string]Order
	items     map[string]OrderItem
	done      bool
}

func (t *memTx) CustomerByID(ctx context.Context, id string) (*customers.Customer, error) {
	c, ok := t.customers[id]
	if !ok {
		return nil, customers.ErrNotFound
	}
	return &c, nil
}

func (t *memTx) ProductForUpdate(ctx context.Context, id string) (*products.Product, error) {
	p, ok := t.products[id]
	if !ok {
		return nil, products.ErrNotFound
	}
	return &p, nil
}

func (t *memTx) SetProductStock(ctx context.Context, id string, stock int) error {
	p := t.products[id]
	p.Stock = stock
	t.products[id] = p
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *Order) error {
	t.orders[o.ID] = *o
	return nil
}

func (t *memTx) InsertOrderItems(ctx context.Context, items []OrderItem) error {
	for _, it := range items {
		t.items[it.ID] = it
	}
	return nil
}

func (t *memTx) OrderForUpdate(ctx context.Context, id string) (*Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (t *memTx) OrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	var out []OrderItem
	for _, it := range t.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (t *memTx) SetOrderStatus(ctx context.Context, id, status string) error {
	o := t.orders[id]
	o.Status = status
	t.orders[id] = o
	return nil
}

func (t *memTx) DeleteOrderItems(ctx context.Context, orderID string) error {
	for id, it := range t.items {
		if it.OrderID == orderID {
			delete(t.items, id)
		}
	}
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, id string) error {
	delete(t.orders, id)
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.customers = t.customers
	t.store.products = t.products
	t.store.orders = t.orders
	t.store.items = t.items
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}
