package models

import "time"

// Event types on the reporting stream
const (
	EventTypeSaleSettled = "SALE_SETTLED"
	EventTypeTillClosed  = "TILL_CLOSED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleSettledEvent published when a table close settles a sale
type SaleSettledEvent struct {
	BaseEvent
	SaleID        int64   `json:"sale_id"`
	TableID       int64   `json:"table_id"`
	TableCategory string  `json:"table_category"`
	TimeCharge    float64 `json:"time_charge"`
	ProductCharge float64 `json:"product_charge"`
	Total         float64 `json:"total"`
	Method        string  `json:"method"`
}

// TillClosedEvent published when the till is closed; consumed by the
// report worker to fire the end-of-period webhook
type TillClosedEvent struct {
	BaseEvent
	CloseID       int64   `json:"close_id"`
	TotalSales    float64 `json:"total_sales"`
	TotalExpenses float64 `json:"total_expenses"`
	NetProfit     float64 `json:"net_profit"`
	TableCount    int     `json:"table_count"`
}
