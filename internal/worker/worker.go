package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"billiard-pos/internal/broker"
	"billiard-pos/internal/models"
	"billiard-pos/internal/util"

	"go.uber.org/zap"
)

// ReportWorker consumes TillClosed events and forwards the end-of-period
// summary to the external reporting webhook. Delivery is best-effort and
// fully decoupled from the till-close request path.
type ReportWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	webhookURL   string
	venueName    string
	client       *http.Client
	logger       *zap.Logger
}

// NewReportWorker creates a new report worker
func NewReportWorker(consumer *broker.Consumer, webhookURL, venueName string) *ReportWorker {
	w := &ReportWorker{
		consumer:   consumer,
		webhookURL: webhookURL,
		venueName:  venueName,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnTillClosed(w.handleTillClosed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *ReportWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting report worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReportWorker) Stop() error {
	w.logger.Info("Stopping report worker")
	return w.consumer.Close()
}

// reportPayload is the webhook body the reporting pipeline expects.
type reportPayload struct {
	Event         string  `json:"event"`
	Venue         string  `json:"venue"`
	ClosedAt      string  `json:"closed_at"`
	TotalSales    float64 `json:"total_sales"`
	TotalExpenses float64 `json:"total_expenses"`
	NetProfit     float64 `json:"net_profit"`
	TableCount    int     `json:"table_count"`
}

func (w *ReportWorker) handleTillClosed(ctx context.Context, event *models.TillClosedEvent) error {
	if w.webhookURL == "" {
		return nil
	}

	payload := reportPayload{
		Event:         event.EventType,
		Venue:         w.venueName,
		ClosedAt:      event.Timestamp.Format(time.RFC3339),
		TotalSales:    event.TotalSales,
		TotalExpenses: event.TotalExpenses,
		NetProfit:     event.NetProfit,
		TableCount:    event.TableCount,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal report payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		// Logged and dropped: the webhook must never block closing the till.
		w.logger.Warn("Report webhook delivery failed",
			zap.Int64("close_id", event.CloseID),
			zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Warn("Report webhook rejected payload",
			zap.Int64("close_id", event.CloseID),
			zap.Int("status", resp.StatusCode))
		return nil
	}

	w.logger.Info("Till close report delivered",
		zap.Int64("close_id", event.CloseID),
		zap.Float64("total_sales", event.TotalSales))
	return nil
}
