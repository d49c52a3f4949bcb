package store

import (
	"context"
	"database/sql"

	"billiard-pos/internal/models"
)

// AddLineTx appends an unpaid, undelivered line to an occupied table and
// decrements product stock in the same transaction. The decrement is
// conditional (stock >= qty) so concurrent orders cannot drive stock
// negative.
func (s *Store) AddLineTx(ctx context.Context, tableID, productID int64, qty int) (*models.OrderLine, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, models.Storage("AddLineTx", err)
	}
	defer tx.Rollback()

	var state string
	err = tx.GetContext(ctx, &state, "SELECT state FROM tables WHERE id = $1 FOR SHARE", tableID)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("table", tableID)
	}
	if err != nil {
		return nil, models.Storage("AddLineTx", err)
	}
	if state != models.TableStateOccupied {
		return nil, models.Conflictf("table %d has no open session", tableID)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1", qty, productID)
	if err != nil {
		return nil, models.Storage("AddLineTx", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", productID); err != nil {
			return nil, models.Storage("AddLineTx", err)
		}
		if !exists {
			return nil, models.NotFound("product", productID)
		}
		return nil, models.Conflictf("insufficient stock for product %d", productID)
	}

	line := &models.OrderLine{
		TableID:   tableID,
		ProductID: productID,
		Quantity:  qty,
	}
	err = tx.GetContext(ctx, line, `
		INSERT INTO order_lines (table_id, product_id, quantity, delivered, paid, created_at)
		VALUES ($1, $2, $3, FALSE, FALSE, NOW())
		RETURNING id, created_at`, tableID, productID, qty)
	if err != nil {
		return nil, models.Storage("AddLineTx", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.Storage("AddLineTx", err)
	}
	return line, nil
}

// RemoveLineTx voids an unpaid line, restoring its quantity to product
// stock. Paid lines are immutable settlement history and are rejected.
func (s *Store) RemoveLineTx(ctx context.Context, lineID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Storage("RemoveLineTx", err)
	}
	defer tx.Rollback()

	var line models.OrderLine
	err = tx.GetContext(ctx, &line,
		"SELECT id, table_id, product_id, quantity, delivered, paid, created_at FROM order_lines WHERE id = $1 FOR UPDATE", lineID)
	if err == sql.ErrNoRows {
		return models.NotFound("order line", lineID)
	}
	if err != nil {
		return models.Storage("RemoveLineTx", err)
	}
	if line.Paid {
		return models.Conflictf("order line %d is already settled", lineID)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1 WHERE id = $2", line.Quantity, line.ProductID); err != nil {
		return models.Storage("RemoveLineTx", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_lines WHERE id = $1", lineID); err != nil {
		return models.Storage("RemoveLineTx", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Storage("RemoveLineTx", err)
	}
	return nil
}

// UnpaidLines retrieves the unpaid lines of a table joined with product
// name and price, oldest first, for the bill detail view.
func (s *Store) UnpaidLines(ctx context.Context, tableID int64) ([]models.LineDetail, error) {
	var lines []models.LineDetail
	err := s.db.SelectContext(ctx, &lines, `
		SELECT l.id, l.product_id, p.name, l.quantity, p.price AS unit_price
		FROM order_lines l
		JOIN products p ON l.product_id = p.id
		WHERE l.table_id = $1 AND l.paid = FALSE
		ORDER BY l.id ASC`, tableID)
	if err != nil {
		return nil, models.Storage("UnpaidLines", err)
	}
	return lines, nil
}

// KitchenPending retrieves unpaid, undelivered lines across all tables,
// oldest first, for the kitchen display.
func (s *Store) KitchenPending(ctx context.Context) ([]models.KitchenLine, error) {
	var lines []models.KitchenLine
	err := s.db.SelectContext(ctx, &lines, `
		SELECT l.id, t.number AS table_number, p.name, l.quantity, p.category, l.created_at
		FROM order_lines l
		JOIN tables t ON l.table_id = t.id
		JOIN products p ON l.product_id = p.id
		WHERE l.paid = FALSE AND l.delivered = FALSE
		ORDER BY l.created_at ASC`)
	if err != nil {
		return nil, models.Storage("KitchenPending", err)
	}
	return lines, nil
}

// MarkLineDelivered flags an unpaid line as delivered
func (s *Store) MarkLineDelivered(ctx context.Context, lineID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE order_lines SET delivered = TRUE WHERE id = $1 AND paid = FALSE", lineID)
	if err != nil {
		return models.Storage("MarkLineDelivered", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("order line", lineID)
	}
	return nil
}
