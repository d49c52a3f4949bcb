package store

import (
	"context"
	"database/sql"
	"time"

	"billiard-pos/internal/models"
)

// LastTillCloseTime returns the timestamp of the most recent till close,
// or the epoch when no close exists yet. Everything after this boundary
// belongs to the current till period.
func (s *Store) LastTillCloseTime(ctx context.Context) (time.Time, error) {
	var last time.Time
	err := s.db.GetContext(ctx, &last,
		"SELECT COALESCE(MAX(closed_at), 'epoch'::timestamptz) FROM till_closes")
	if err != nil {
		return time.Time{}, models.Storage("LastTillCloseTime", err)
	}
	return last, nil
}

// SumSalesTotal sums Sale.total since the given boundary
func (s *Store) SumSalesTotal(ctx context.Context, since time.Time) (float64, error) {
	return s.sumSince(ctx, "SumSalesTotal",
		"SELECT COALESCE(SUM(total), 0) FROM sales WHERE created_at > $1", since)
}

// SumProductCharges sums the product portion of sales since the boundary
func (s *Store) SumProductCharges(ctx context.Context, since time.Time) (float64, error) {
	return s.sumSince(ctx, "SumProductCharges",
		"SELECT COALESCE(SUM(product_charge), 0) FROM sales WHERE created_at > $1", since)
}

// SumTimeCharges sums the table-time portion of sales since the boundary
func (s *Store) SumTimeCharges(ctx context.Context, since time.Time) (float64, error) {
	return s.sumSince(ctx, "SumTimeCharges",
		"SELECT COALESCE(SUM(time_charge), 0) FROM sales WHERE created_at > $1", since)
}

// SumExpenses sums expenses since the boundary
func (s *Store) SumExpenses(ctx context.Context, since time.Time) (float64, error) {
	return s.sumSince(ctx, "SumExpenses",
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE created_at > $1", since)
}

// SumCashRevenue sums the cash bucket: EFECTIVO sales in full plus the
// declared cash portion of MIXTO sales.
func (s *Store) SumCashRevenue(ctx context.Context, since time.Time) (float64, error) {
	return s.sumSince(ctx, "SumCashRevenue", `
		SELECT COALESCE(SUM(CASE
			WHEN method = 'EFECTIVO' THEN total
			WHEN method = 'MIXTO' THEN cash_amount
			ELSE 0 END), 0)
		FROM sales WHERE created_at > $1`, since)
}

// SumDigitalRevenue sums the digital bucket: YAPE/PLIN/TARJETA sales in
// full plus the declared digital portion of MIXTO sales.
func (s *Store) SumDigitalRevenue(ctx context.Context, since time.Time) (float64, error) {
	return s.sumSince(ctx, "SumDigitalRevenue", `
		SELECT COALESCE(SUM(CASE
			WHEN method IN ('YAPE', 'PLIN', 'TARJETA') THEN total
			WHEN method = 'MIXTO' THEN digital_amount
			ELSE 0 END), 0)
		FROM sales WHERE created_at > $1`, since)
}

func (s *Store) sumSince(ctx context.Context, op, query string, since time.Time) (float64, error) {
	var total float64
	if err := s.db.GetContext(ctx, &total, query, since); err != nil {
		return 0, models.Storage(op, err)
	}
	return total, nil
}

// CountSalesSince counts settled sales in the current period
func (s *Store) CountSalesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM sales WHERE created_at > $1", since); err != nil {
		return 0, models.Storage("CountSalesSince", err)
	}
	return count, nil
}

// ListSalesSince retrieves settled sales in the period, newest first
func (s *Store) ListSalesSince(ctx context.Context, since time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.SelectContext(ctx, &sales, `
		SELECT id, table_id, table_category, time_charge, product_charge, total, method, cash_amount, digital_amount, created_at
		FROM sales WHERE created_at > $1
		ORDER BY created_at DESC`, since)
	if err != nil {
		return nil, models.Storage("ListSalesSince", err)
	}
	return sales, nil
}

// CreateTillClose snapshots the current period into a new close record
func (s *Store) CreateTillClose(ctx context.Context, tc *models.TillClose) error {
	err := s.db.GetContext(ctx, tc, `
		INSERT INTO till_closes (total_sales, total_expenses, table_count, closed_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, closed_at`,
		tc.TotalSales, tc.TotalExpenses, tc.TableCount)
	return models.Storage("CreateTillClose", err)
}

// ListTillCloses retrieves recent close snapshots, newest first
func (s *Store) ListTillCloses(ctx context.Context, limit int) ([]models.TillClose, error) {
	var closes []models.TillClose
	err := s.db.SelectContext(ctx, &closes, `
		SELECT id, total_sales, total_expenses, table_count, closed_at
		FROM till_closes ORDER BY closed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, models.Storage("ListTillCloses", err)
	}
	return closes, nil
}

// DeleteSale removes a settled sale (admin reconciliation). Stock is not
// restored: it was decremented at order time, independent of payment.
func (s *Store) DeleteSale(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sales WHERE id = $1", id)
	if err != nil {
		return models.Storage("DeleteSale", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("sale", id)
	}
	return nil
}

// DeleteTillCloseTx undoes a till close: it deletes the sales settled
// between the previous close and this one, then removes the close record
// itself, re-opening the period. Destructive and admin-only.
func (s *Store) DeleteTillCloseTx(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Storage("DeleteTillCloseTx", err)
	}
	defer tx.Rollback()

	var closedAt time.Time
	err = tx.GetContext(ctx, &closedAt,
		"SELECT closed_at FROM till_closes WHERE id = $1 FOR UPDATE", id)
	if err == sql.ErrNoRows {
		return models.NotFound("till close", id)
	}
	if err != nil {
		return models.Storage("DeleteTillCloseTx", err)
	}

	var prior time.Time
	err = tx.GetContext(ctx, &prior,
		"SELECT COALESCE(MAX(closed_at), 'epoch'::timestamptz) FROM till_closes WHERE closed_at < $1", closedAt)
	if err != nil {
		return models.Storage("DeleteTillCloseTx", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sales WHERE created_at > $1 AND created_at <= $2", prior, closedAt); err != nil {
		return models.Storage("DeleteTillCloseTx", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM till_closes WHERE id = $1", id); err != nil {
		return models.Storage("DeleteTillCloseTx", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Storage("DeleteTillCloseTx", err)
	}
	return nil
}

// CreateExpense appends an expense to the current period
func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	err := s.db.GetContext(ctx, e, `
		INSERT INTO expenses (description, amount, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at`, e.Description, e.Amount)
	return models.Storage("CreateExpense", err)
}

// WeeklySales aggregates sale totals per day over the trailing week
func (s *Store) WeeklySales(ctx context.Context) ([]models.DailySales, error) {
	var days []models.DailySales
	err := s.db.SelectContext(ctx, &days, `
		SELECT TO_CHAR(created_at, 'DD/MM') AS day, SUM(total) AS total
		FROM sales
		WHERE created_at > NOW() - INTERVAL '7 days'
		GROUP BY day
		ORDER BY MIN(created_at) ASC`)
	if err != nil {
		return nil, models.Storage("WeeklySales", err)
	}
	return days, nil
}

// TopProducts retrieves the best-selling products by ordered quantity
func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	var top []models.TopProduct
	err := s.db.SelectContext(ctx, &top, `
		SELECT p.name, SUM(l.quantity) AS quantity
		FROM order_lines l
		JOIN products p ON l.product_id = p.id
		GROUP BY p.name
		ORDER BY quantity DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, models.Storage("TopProducts", err)
	}
	return top, nil
}
