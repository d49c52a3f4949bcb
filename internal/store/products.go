package store

import (
	"context"
	"database/sql"

	"billiard-pos/internal/models"
)

// GetProducts retrieves the full catalog, alphabetical
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT id, name, price, stock, category, created_at FROM products ORDER BY name ASC")
	if err != nil {
		return nil, models.Storage("GetProducts", err)
	}
	return products, nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p,
		"SELECT id, name, price, stock, category, created_at FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("product", id)
	}
	if err != nil {
		return nil, models.Storage("GetProductByID", err)
	}
	return &p, nil
}

// PublicMenu retrieves the customer-facing menu: in-stock products only,
// stripped of ids, stock counts and anything administrative.
func (s *Store) PublicMenu(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT name, price, category
		FROM products
		WHERE stock > 0
		ORDER BY category, name ASC`)
	if err != nil {
		return nil, models.Storage("PublicMenu", err)
	}
	return items, nil
}

// CreateProduct inserts a catalog item
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	err := s.db.GetContext(ctx, p, `
		INSERT INTO products (name, price, stock, category, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		p.Name, p.Price, p.Stock, p.Category)
	return models.Storage("CreateProduct", err)
}

// DeleteProductTx removes a product and any order lines that still
// reference it, in one transaction.
func (s *Store) DeleteProductTx(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Storage("DeleteProductTx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_lines WHERE product_id = $1", id); err != nil {
		return models.Storage("DeleteProductTx", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return models.Storage("DeleteProductTx", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("product", id)
	}

	if err := tx.Commit(); err != nil {
		return models.Storage("DeleteProductTx", err)
	}
	return nil
}

// RestockTx increments product stock and, when the purchase had a cost,
// records the matching expense in the same transaction.
func (s *Store) RestockTx(ctx context.Context, id int64, qty int, expenseDescription string, cost float64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Storage("RestockTx", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE products SET stock = stock + $1 WHERE id = $2", qty, id)
	if err != nil {
		return models.Storage("RestockTx", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("product", id)
	}

	if cost > 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expenses (description, amount, created_at) VALUES ($1, $2, NOW())",
			expenseDescription, cost); err != nil {
			return models.Storage("RestockTx", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Storage("RestockTx", err)
	}
	return nil
}
