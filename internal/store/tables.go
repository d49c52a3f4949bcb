package store

import (
	"context"
	"database/sql"

	"billiard-pos/internal/billing"
	"billiard-pos/internal/models"
)

// ListTables retrieves all tables with their elapsed session seconds
// computed by the database clock
func (s *Store) ListTables(ctx context.Context) ([]models.TableStatus, error) {
	var tables []models.TableStatus
	err := s.db.SelectContext(ctx, &tables, `
		SELECT id, number, category, state, session_start, time_limit_min,
		       COALESCE(EXTRACT(EPOCH FROM (NOW() - session_start)), 0) AS elapsed_seconds
		FROM tables
		ORDER BY number ASC`)
	if err != nil {
		return nil, models.Storage("ListTables", err)
	}
	return tables, nil
}

// GetTable retrieves a table by ID
func (s *Store) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	var t models.Table
	err := s.db.GetContext(ctx, &t,
		"SELECT id, number, category, state, session_start, time_limit_min FROM tables WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("table", id)
	}
	if err != nil {
		return nil, models.Storage("GetTable", err)
	}
	return &t, nil
}

// TableElapsedMinutes computes the current session's elapsed minutes for
// a table, rounded up, using the database clock. Zero when the table has
// no running session.
func (s *Store) TableElapsedMinutes(ctx context.Context, id int64) (int, error) {
	var elapsedSeconds sql.NullFloat64
	err := s.db.GetContext(ctx, &elapsedSeconds,
		"SELECT EXTRACT(EPOCH FROM (NOW() - session_start)) FROM tables WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return 0, models.NotFound("table", id)
	}
	if err != nil {
		return 0, models.Storage("TableElapsedMinutes", err)
	}
	if !elapsedSeconds.Valid {
		return 0, nil
	}
	return billing.ElapsedMinutes(elapsedSeconds.Float64), nil
}

// OpenTable transitions a FREE table to OCCUPIED, stamping the session
// start with the database clock. The state guard in the WHERE clause
// rejects a concurrent open of the same table.
func (s *Store) OpenTable(ctx context.Context, id int64, limitMinutes int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tables
		SET state = $1, session_start = NOW(), time_limit_min = $2
		WHERE id = $3 AND state = $4`,
		models.TableStateOccupied, limitMinutes, id, models.TableStateFree)
	if err != nil {
		return models.Storage("OpenTable", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Storage("OpenTable", err)
	}
	if n == 0 {
		if _, err := s.GetTable(ctx, id); err != nil {
			return err
		}
		return models.Conflictf("table %d is already occupied", id)
	}
	return nil
}

// CloseTableTx settles a table in a single transaction: it locks the
// table row, computes the time charge from the database clock, sums the
// unpaid product charge, inserts the Sale, marks the lines paid and
// frees the table. Closing an already-FREE table is a ConflictError; a
// second close racing the first loses the row lock and is rejected the
// same way, so at most one Sale per session can exist.
func (s *Store) CloseTableTx(ctx context.Context, id int64, hourlyRate float64, method string, cashPaid, digitalPaid float64) (*models.Sale, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, models.Storage("CloseTableTx", err)
	}
	defer tx.Rollback()

	var t models.Table
	err = tx.GetContext(ctx, &t,
		"SELECT id, number, category, state, session_start, time_limit_min FROM tables WHERE id = $1 FOR UPDATE", id)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("table", id)
	}
	if err != nil {
		return nil, models.Storage("CloseTableTx", err)
	}
	if t.State != models.TableStateOccupied {
		return nil, models.Conflictf("table %d has no open session", id)
	}

	var timeCharge float64
	if t.Category == models.TableCategoryTimeBilled && t.SessionStart.Valid {
		var elapsedSeconds float64
		err = tx.GetContext(ctx, &elapsedSeconds,
			"SELECT EXTRACT(EPOCH FROM (NOW() - $1::timestamptz))", t.SessionStart.Time)
		if err != nil {
			return nil, models.Storage("CloseTableTx", err)
		}
		timeCharge = billing.TimeCharge(billing.ElapsedMinutes(elapsedSeconds), hourlyRate)
	}

	var productCharge float64
	err = tx.GetContext(ctx, &productCharge, `
		SELECT COALESCE(SUM(p.price * l.quantity), 0)
		FROM order_lines l
		JOIN products p ON l.product_id = p.id
		WHERE l.table_id = $1 AND l.paid = FALSE`, id)
	if err != nil {
		return nil, models.Storage("CloseTableTx", err)
	}

	total := timeCharge + productCharge
	cashAmount, digitalAmount, err := billing.SplitPayment(method, total, cashPaid, digitalPaid)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		TableID:       id,
		TableCategory: t.Category,
		TimeCharge:    timeCharge,
		ProductCharge: productCharge,
		Total:         total,
		Method:        method,
		CashAmount:    cashAmount,
		DigitalAmount: digitalAmount,
	}
	err = tx.GetContext(ctx, sale, `
		INSERT INTO sales (table_id, table_category, time_charge, product_charge, total, method, cash_amount, digital_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at`,
		sale.TableID, sale.TableCategory, sale.TimeCharge, sale.ProductCharge,
		sale.Total, sale.Method, sale.CashAmount, sale.DigitalAmount)
	if err != nil {
		return nil, models.Storage("CloseTableTx", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE order_lines SET paid = TRUE WHERE table_id = $1 AND paid = FALSE", id); err != nil {
		return nil, models.Storage("CloseTableTx", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE tables
		SET state = $1, session_start = NULL, time_limit_min = 0
		WHERE id = $2 AND state = $3`,
		models.TableStateFree, id, models.TableStateOccupied)
	if err != nil {
		return nil, models.Storage("CloseTableTx", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, models.Conflictf("table %d changed state during close", id)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.Storage("CloseTableTx", err)
	}
	return sale, nil
}

// MoveTableTx relocates a running session from origin to dest atomically:
// dest takes over session_start (billing continuity) and the time limit,
// all unpaid lines are reassigned, and origin is freed. Both rows are
// locked in id order so two concurrent moves cannot deadlock.
func (s *Store) MoveTableTx(ctx context.Context, originID, destID int64) error {
	if originID == destID {
		return models.Validationf("origin and destination are the same table")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Storage("MoveTableTx", err)
	}
	defer tx.Rollback()

	first, second := originID, destID
	if second < first {
		first, second = second, first
	}
	var locked []models.Table
	err = tx.SelectContext(ctx, &locked, `
		SELECT id, number, category, state, session_start, time_limit_min
		FROM tables WHERE id IN ($1, $2) ORDER BY id FOR UPDATE`, first, second)
	if err != nil {
		return models.Storage("MoveTableTx", err)
	}

	var origin, dest *models.Table
	for i := range locked {
		switch locked[i].ID {
		case originID:
			origin = &locked[i]
		case destID:
			dest = &locked[i]
		}
	}
	if origin == nil {
		return models.NotFound("table", originID)
	}
	if dest == nil {
		return models.NotFound("table", destID)
	}
	if origin.State != models.TableStateOccupied {
		return models.Conflictf("origin table %d is not occupied", originID)
	}
	if dest.State != models.TableStateFree {
		return models.Conflictf("destination table %d is occupied", destID)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tables SET state = $1, session_start = $2, time_limit_min = $3 WHERE id = $4`,
		models.TableStateOccupied, origin.SessionStart, origin.TimeLimitMin, destID); err != nil {
		return models.Storage("MoveTableTx", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE order_lines SET table_id = $1 WHERE table_id = $2 AND paid = FALSE", destID, originID); err != nil {
		return models.Storage("MoveTableTx", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tables SET state = $1, session_start = NULL, time_limit_min = 0 WHERE id = $2`,
		models.TableStateFree, originID); err != nil {
		return models.Storage("MoveTableTx", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Storage("MoveTableTx", err)
	}
	return nil
}
