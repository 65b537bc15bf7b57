package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/venue-admin/internal/model"
)

// ErrProductNotFound is returned when a product lookup fails.
var ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

// ProductRepo persists the services catalog.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo constructs a ProductRepo with the given DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productSelect = `SELECT id, type, name, price, stock, category, image, created_at, updated_at FROM products`

func scanProduct(s rowScanner) (*model.Product, error) {
	var p model.Product
	if err := s.Scan(&p.ID, &p.Type, &p.Name, &p.Price, &p.Stock, &p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the whole catalog.
func (r *ProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx, productSelect+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID returns a product or ErrProductNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// Create inserts a product and reloads it.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (type, name, price, stock, category, image) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Type, p.Name, p.Price, p.Stock, p.Category, p.Image)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Update overwrites the editable columns of a product and reloads it.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET type = ?, name = ?, price = ?, stock = ?, category = ?, image = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Type, p.Name, p.Price, p.Stock, p.Category, p.Image, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	fresh, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
