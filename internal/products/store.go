package products

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ErrNotFound indicates the referenced product does not exist.
var ErrNotFound = errors.New("product not found")

// Store provides CRUD access to the products table. It never touches
// stock from concurrent order workflows; that path goes through the
// orders transaction with row locks.
type Store struct {
	db      *sqlx.DB
	nowFunc func() time.Time
}

// NewStore creates a products Store.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, nowFunc: time.Now}
}

// Create inserts a new product. The ID is assigned here if empty.
func (s *Store) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.nowFunc().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, stock, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert product")
	}
	return nil
}

// GetByID fetches one product, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := s.db.GetContext(ctx, &p,
		`SELECT id, name, description, price, stock, created_at, updated_at
		 FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	return &p, nil
}

// List returns all products, newest first.
func (s *Store) List(ctx context.Context) ([]*Product, error) {
	var out []*Product
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, name, description, price, stock, created_at, updated_at
		 FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return out, nil
}

// Update overwrites the mutable fields of an existing product, stock
// included. This is the catalog maintenance path, not the order path.
func (s *Store) Update(ctx context.Context, p *Product) error {
	p.UpdatedAt = s.nowFunc().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, stock = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.Price, p.Stock, p.UpdatedAt, p.ID)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		if _, getErr := s.GetByID(ctx, p.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}

// Delete removes a product. Historical order items keep referencing the
// id; order deletion tolerates the gap and skips the restock.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
