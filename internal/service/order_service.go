package service

import (
	"context"

	"billiard-pos/internal/models"
	"billiard-pos/internal/notify"
	"billiard-pos/internal/store"
	"billiard-pos/internal/util"

	"go.uber.org/zap"
)

// OrderService manages the per-table order ledger and the kitchen feed.
type OrderService struct {
	store    *store.Store
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, notifier notify.Notifier) *OrderService {
	return &OrderService{
		store:    store,
		notifier: notifier,
		logger:   util.GetLogger(),
	}
}

// AddLineRequest adds a product to a table's running bill
type AddLineRequest struct {
	TableID   int64 `json:"table_id" binding:"required,gt=0"`
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// AddLine appends an unpaid line and decrements stock atomically.
func (os *OrderService) AddLine(ctx context.Context, req *AddLineRequest) (*models.OrderLine, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AddLine")
	defer span.End()

	if req.Quantity <= 0 {
		return nil, models.Validationf("quantity must be positive, got %d", req.Quantity)
	}

	line, err := os.store.AddLineTx(ctx, req.TableID, req.ProductID, req.Quantity)
	if err != nil {
		if _, ok := err.(*models.ConflictError); ok {
			util.StockConflictsTotal.Inc()
		}
		return nil, err
	}

	util.OrderLinesAddedTotal.Inc()
	os.logger.Info("Order line added",
		zap.Int64("table_id", req.TableID),
		zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity))

	os.notifier.Notify(ctx, notify.EventTablesChanged)
	os.notifier.Notify(ctx, notify.EventKitchenChanged)
	return line, nil
}

// RemoveLine voids an unpaid line, restoring its stock.
func (os *OrderService) RemoveLine(ctx context.Context, lineID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.RemoveLine")
	defer span.End()

	if err := os.store.RemoveLineTx(ctx, lineID); err != nil {
		return err
	}

	util.OrderLinesVoidedTotal.Inc()
	os.logger.Info("Order line voided", zap.Int64("line_id", lineID))

	os.notifier.Notify(ctx, notify.EventTablesChanged)
	os.notifier.Notify(ctx, notify.EventKitchenChanged)
	return nil
}

// KitchenPending lists undelivered unpaid lines for the kitchen display.
func (os *OrderService) KitchenPending(ctx context.Context) ([]models.KitchenLine, error) {
	return os.store.KitchenPending(ctx)
}

// MarkDelivered flags a line as handed off to the table.
func (os *OrderService) MarkDelivered(ctx context.Context, lineID int64) error {
	if err := os.store.MarkLineDelivered(ctx, lineID); err != nil {
		return err
	}
	os.notifier.Notify(ctx, notify.EventKitchenChanged)
	return nil
}
