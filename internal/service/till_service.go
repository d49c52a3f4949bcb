package service

import (
	"context"
	"sync"
	"time"

	"billiard-pos/internal/broker"
	"billiard-pos/internal/models"
	"billiard-pos/internal/notify"
	"billiard-pos/internal/store"
	"billiard-pos/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tillHistoryLimit caps the close-history listing.
const tillHistoryLimit = 30

// TillService aggregates the current cash-drawer period and manages the
// close snapshots that bound it.
type TillService struct {
	store     *store.Store
	notifier  notify.Notifier
	publisher *broker.EventPublisher
	logger    *zap.Logger
}

// NewTillService creates a new till service
func NewTillService(store *store.Store, notifier notify.Notifier, publisher *broker.EventPublisher) *TillService {
	return &TillService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// TillTotals is the live reconciliation view of the current period.
type TillTotals struct {
	GrossRevenue   float64       `json:"gross_revenue"`
	TotalExpenses  float64       `json:"total_expenses"`
	NetTotal       float64       `json:"net_total"`
	CashRevenue    float64       `json:"cash_revenue"`
	DigitalRevenue float64       `json:"digital_revenue"`
	CashInDrawer   float64       `json:"cash_in_drawer"`
	ProductRevenue float64       `json:"product_revenue"`
	TimeRevenue    float64       `json:"time_revenue"`
	Sales          []models.Sale `json:"sales"`
}

// ExpenseRequest records a cash outflow
type ExpenseRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

// CurrentTotals computes the running totals of the open till period. The
// sub-sums are independent reads, so they run concurrently; the first
// error wins.
func (ts *TillService) CurrentTotals(ctx context.Context) (*TillTotals, error) {
	ctx, span := util.StartSpan(ctx, "TillService.CurrentTotals")
	defer span.End()

	start := time.Now()
	defer func() {
		util.TillTotalsLatency.Observe(time.Since(start).Seconds())
	}()

	since, err := ts.store.LastTillCloseTime(ctx)
	if err != nil {
		return nil, err
	}

	var (
		gross, expenses, products, timeRev, cash, digital float64
		sales                                             []models.Sale
	)

	jobs := []func() error{
		func() (err error) { gross, err = ts.store.SumSalesTotal(ctx, since); return },
		func() (err error) { expenses, err = ts.store.SumExpenses(ctx, since); return },
		func() (err error) { products, err = ts.store.SumProductCharges(ctx, since); return },
		func() (err error) { timeRev, err = ts.store.SumTimeCharges(ctx, since); return },
		func() (err error) { cash, err = ts.store.SumCashRevenue(ctx, since); return },
		func() (err error) { digital, err = ts.store.SumDigitalRevenue(ctx, since); return },
		func() (err error) { sales, err = ts.store.ListSalesSince(ctx, since); return },
	}

	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job func() error) {
			defer wg.Done()
			errs[i] = job()
		}(i, job)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return buildTotals(gross, expenses, products, timeRev, cash, digital, sales), nil
}

// buildTotals assembles the drawer math: cashInDrawer is cash revenue
// minus every expense (expenses always leave the drawer), net is gross
// minus expenses.
func buildTotals(gross, expenses, products, timeRev, cash, digital float64, sales []models.Sale) *TillTotals {
	return &TillTotals{
		GrossRevenue:   gross,
		TotalExpenses:  expenses,
		NetTotal:       gross - expenses,
		CashRevenue:    cash,
		DigitalRevenue: digital,
		CashInDrawer:   cash - expenses,
		ProductRevenue: products,
		TimeRevenue:    timeRev,
		Sales:          sales,
	}
}

// CloseTill snapshots the current period and advances the boundary.
// Sales and expenses are kept; only future CurrentTotals calls start
// from the new close. A double submission yields a second, zero-delta
// snapshot, which is harmless.
func (ts *TillService) CloseTill(ctx context.Context) (*models.TillClose, error) {
	ctx, span := util.StartSpan(ctx, "TillService.CloseTill")
	defer span.End()

	since, err := ts.store.LastTillCloseTime(ctx)
	if err != nil {
		return nil, err
	}

	totalSales, err := ts.store.SumSalesTotal(ctx, since)
	if err != nil {
		return nil, err
	}
	totalExpenses, err := ts.store.SumExpenses(ctx, since)
	if err != nil {
		return nil, err
	}
	tableCount, err := ts.store.CountSalesSince(ctx, since)
	if err != nil {
		return nil, err
	}

	tc := &models.TillClose{
		TotalSales:    totalSales,
		TotalExpenses: totalExpenses,
		TableCount:    tableCount,
	}
	if err := ts.store.CreateTillClose(ctx, tc); err != nil {
		return nil, err
	}

	util.TillClosesTotal.Inc()
	ts.logger.Info("Till closed",
		zap.Int64("close_id", tc.ID),
		zap.Float64("total_sales", tc.TotalSales),
		zap.Float64("total_expenses", tc.TotalExpenses),
		zap.Int("table_count", tc.TableCount))

	ts.notifier.Notify(ctx, notify.EventTillChanged)

	event := &models.TillClosedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTillClosed,
			Timestamp: time.Now(),
		},
		CloseID:       tc.ID,
		TotalSales:    tc.TotalSales,
		TotalExpenses: tc.TotalExpenses,
		NetProfit:     tc.TotalSales - tc.TotalExpenses,
		TableCount:    tc.TableCount,
	}
	if err := ts.publisher.PublishTillClosed(ctx, event); err != nil {
		ts.logger.Error("Failed to publish TillClosed event", zap.Error(err))
	}

	return tc, nil
}

// AddExpense appends a cash outflow to the current period.
func (ts *TillService) AddExpense(ctx context.Context, req *ExpenseRequest) (*models.Expense, error) {
	if req.Description == "" {
		return nil, models.Validationf("expense description is required")
	}
	if req.Amount <= 0 {
		return nil, models.Validationf("expense amount must be positive, got %.2f", req.Amount)
	}

	e := &models.Expense{Description: req.Description, Amount: req.Amount}
	if err := ts.store.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	ts.logger.Info("Expense recorded",
		zap.String("description", e.Description),
		zap.Float64("amount", e.Amount))

	ts.notifier.Notify(ctx, notify.EventTillChanged)
	return e, nil
}

// DeleteSale is the admin reconciliation correction: the sale leaves the
// gross total retroactively, stock is untouched.
func (ts *TillService) DeleteSale(ctx context.Context, saleID int64) error {
	ctx, span := util.StartSpan(ctx, "TillService.DeleteSale")
	defer span.End()

	if err := ts.store.DeleteSale(ctx, saleID); err != nil {
		return err
	}

	ts.logger.Warn("Sale deleted for reconciliation", zap.Int64("sale_id", saleID))
	ts.notifier.Notify(ctx, notify.EventTillChanged)
	return nil
}

// DeleteTillClose undoes a close snapshot and the sales of its period.
func (ts *TillService) DeleteTillClose(ctx context.Context, closeID int64) error {
	ctx, span := util.StartSpan(ctx, "TillService.DeleteTillClose")
	defer span.End()

	if err := ts.store.DeleteTillCloseTx(ctx, closeID); err != nil {
		return err
	}

	ts.logger.Warn("Till close deleted, period re-opened", zap.Int64("close_id", closeID))
	ts.notifier.Notify(ctx, notify.EventTillChanged)
	return nil
}

// History lists recent close snapshots.
func (ts *TillService) History(ctx context.Context) ([]models.TillClose, error) {
	return ts.store.ListTillCloses(ctx, tillHistoryLimit)
}

// WeeklyStats is the trailing-week report: revenue per day plus the
// best-selling products.
type WeeklyStats struct {
	Daily       []models.DailySales `json:"daily"`
	TopProducts []models.TopProduct `json:"top_products"`
}

// Stats builds the weekly statistics report.
func (ts *TillService) Stats(ctx context.Context) (*WeeklyStats, error) {
	daily, err := ts.store.WeeklySales(ctx)
	if err != nil {
		return nil, err
	}
	top, err := ts.store.TopProducts(ctx, 5)
	if err != nil {
		return nil, err
	}
	return &WeeklyStats{Daily: daily, TopProducts: top}, nil
}
