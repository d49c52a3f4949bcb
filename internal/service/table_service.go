package service

import (
	"context"
	"time"

	"billiard-pos/internal/billing"
	"billiard-pos/internal/broker"
	"billiard-pos/internal/models"
	"billiard-pos/internal/notify"
	"billiard-pos/internal/store"
	"billiard-pos/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TableService drives the table session lifecycle: open, detail, move
// and the settling close.
type TableService struct {
	store     *store.Store
	pricing   *PricingService
	notifier  notify.Notifier
	publisher *broker.EventPublisher
	logger    *zap.Logger
}

// NewTableService creates a new table service
func NewTableService(
	store *store.Store,
	pricing *PricingService,
	notifier notify.Notifier,
	publisher *broker.EventPublisher,
) *TableService {
	return &TableService{
		store:     store,
		pricing:   pricing,
		notifier:  notifier,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// OpenTableRequest opens a session on a free table
type OpenTableRequest struct {
	TimeLimitMinutes int `json:"minutes" binding:"gte=0"`
}

// CloseTableRequest settles a table
type CloseTableRequest struct {
	Method        string  `json:"method" binding:"required"`
	CashAmount    float64 `json:"cash_amount" binding:"gte=0"`
	DigitalAmount float64 `json:"digital_amount" binding:"gte=0"`
}

// MoveTableRequest relocates a running session
type MoveTableRequest struct {
	OriginID int64 `json:"origin_id" binding:"required,gt=0"`
	DestID   int64 `json:"dest_id" binding:"required,gt=0"`
}

// TableDetail is the live bill for one table
type TableDetail struct {
	TableID        int64               `json:"table_id"`
	Category       string              `json:"category"`
	ElapsedMinutes int                 `json:"elapsed_minutes"`
	TimeCharge     float64             `json:"time_charge"`
	Lines          []models.LineDetail `json:"lines"`
	ProductCharge  float64             `json:"product_charge"`
	Total          float64             `json:"total"`
}

// List returns all tables with live session data for the floor view.
// Elapsed seconds are surfaced only for occupied time-billed tables.
func (ts *TableService) List(ctx context.Context) ([]models.TableStatus, error) {
	ctx, span := util.StartSpan(ctx, "TableService.List")
	defer span.End()

	tables, err := ts.store.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	rate := ts.pricing.Rate(ctx)
	for i := range tables {
		tables[i].HourlyRate = rate
		if tables[i].State != models.TableStateOccupied || tables[i].Category != models.TableCategoryTimeBilled {
			tables[i].ElapsedSeconds = 0
		}
	}
	return tables, nil
}

// Open transitions a free table to occupied with an optional session
// time limit (0 = unlimited).
func (ts *TableService) Open(ctx context.Context, tableID int64, limitMinutes int) error {
	ctx, span := util.StartSpan(ctx, "TableService.Open")
	defer span.End()

	if limitMinutes < 0 {
		return models.Validationf("time limit must not be negative, got %d", limitMinutes)
	}

	if err := ts.store.OpenTable(ctx, tableID, limitMinutes); err != nil {
		util.TableOpsRejectedTotal.WithLabelValues("open", rejectReason(err)).Inc()
		return err
	}

	util.TablesOpenedTotal.Inc()
	ts.logger.Info("Table opened",
		zap.Int64("table_id", tableID),
		zap.Int("time_limit_min", limitMinutes))

	ts.notifier.Notify(ctx, notify.EventTablesChanged)
	return nil
}

// Detail builds the live bill for a table: the running time charge plus
// every unpaid line with its subtotal.
func (ts *TableService) Detail(ctx context.Context, tableID int64) (*TableDetail, error) {
	ctx, span := util.StartSpan(ctx, "TableService.Detail")
	defer span.End()

	t, err := ts.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	var elapsed int
	if t.Category == models.TableCategoryTimeBilled && t.SessionStart.Valid {
		elapsed, err = ts.store.TableElapsedMinutes(ctx, tableID)
		if err != nil {
			return nil, err
		}
	}

	lines, err := ts.store.UnpaidLines(ctx, tableID)
	if err != nil {
		return nil, err
	}

	return buildDetail(tableID, t.Category, t.SessionStart.Valid, elapsed, ts.pricing.Rate(ctx), lines), nil
}

// buildDetail assembles the bill from its parts. Pure, so the billing
// arithmetic is testable without a database. The one-block minimum
// applies only to a running session; a table with no session bills zero
// time no matter its category.
func buildDetail(tableID int64, category string, running bool, elapsedMinutes int, rate float64, lines []models.LineDetail) *TableDetail {
	var timeCharge float64
	if running {
		timeCharge = billing.ChargeForCategory(category, elapsedMinutes, rate)
	}

	var productCharge float64
	for i := range lines {
		lines[i].Subtotal = lines[i].UnitPrice * float64(lines[i].Quantity)
		productCharge += lines[i].Subtotal
	}

	return &TableDetail{
		TableID:        tableID,
		Category:       category,
		ElapsedMinutes: elapsedMinutes,
		TimeCharge:     timeCharge,
		Lines:          lines,
		ProductCharge:  productCharge,
		Total:          timeCharge + productCharge,
	}
}

// Close settles a table: time charge plus product charge become one
// immutable Sale, unpaid lines flip to paid, the table frees. A close on
// an already-free table is rejected with a ConflictError; that signals a
// racing client, not a retry.
func (ts *TableService) Close(ctx context.Context, tableID int64, req *CloseTableRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "TableService.Close")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CloseTableLatency.Observe(time.Since(start).Seconds())
	}()

	if !models.ValidMethod(req.Method) {
		return nil, models.Validationf("unknown payment method %q", req.Method)
	}

	rate := ts.pricing.Rate(ctx)
	sale, err := ts.store.CloseTableTx(ctx, tableID, rate, req.Method, req.CashAmount, req.DigitalAmount)
	if err != nil {
		util.TableOpsRejectedTotal.WithLabelValues("close", rejectReason(err)).Inc()
		return nil, err
	}

	util.TablesClosedTotal.Inc()
	util.SalesAmountTotal.WithLabelValues(sale.Method).Add(sale.Total)
	ts.logger.Info("Table settled",
		zap.Int64("table_id", tableID),
		zap.Int64("sale_id", sale.ID),
		zap.Float64("time_charge", sale.TimeCharge),
		zap.Float64("product_charge", sale.ProductCharge),
		zap.Float64("total", sale.Total),
		zap.String("method", sale.Method))

	ts.notifier.Notify(ctx, notify.EventTablesChanged)
	ts.notifier.Notify(ctx, notify.EventTillChanged)

	event := &models.SaleSettledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSaleSettled,
			Timestamp: time.Now(),
		},
		SaleID:        sale.ID,
		TableID:       sale.TableID,
		TableCategory: sale.TableCategory,
		TimeCharge:    sale.TimeCharge,
		ProductCharge: sale.ProductCharge,
		Total:         sale.Total,
		Method:        sale.Method,
	}
	if err := ts.publisher.PublishSaleSettled(ctx, event); err != nil {
		ts.logger.Error("Failed to publish SaleSettled event", zap.Error(err))
	}

	return sale, nil
}

// Move relocates a running session, preserving session_start so billing
// continues uninterrupted on the destination table.
func (ts *TableService) Move(ctx context.Context, originID, destID int64) error {
	ctx, span := util.StartSpan(ctx, "TableService.Move")
	defer span.End()

	if err := ts.store.MoveTableTx(ctx, originID, destID); err != nil {
		util.TableOpsRejectedTotal.WithLabelValues("move", rejectReason(err)).Inc()
		return err
	}

	util.TablesMovedTotal.Inc()
	ts.logger.Info("Table session moved",
		zap.Int64("origin_id", originID),
		zap.Int64("dest_id", destID))

	ts.notifier.Notify(ctx, notify.EventTablesChanged)
	return nil
}

// rejectReason buckets an error for the rejection metric label.
func rejectReason(err error) string {
	switch err.(type) {
	case *models.ConflictError:
		return "conflict"
	case *models.NotFoundError:
		return "not_found"
	case *models.ValidationError:
		return "validation"
	default:
		return "storage"
	}
}
