package models

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Table categories
const (
	TableCategoryTimeBilled = "TIME_BILLED"
	TableCategoryFlat       = "FLAT_CONSUMPTION"
)

// Table states
const (
	TableStateFree     = "FREE"
	TableStateOccupied = "OCCUPIED"
)

// Payment methods
const (
	PaymentCash  = "EFECTIVO"
	PaymentYape  = "YAPE"
	PaymentPlin  = "PLIN"
	PaymentCard  = "TARJETA"
	PaymentMixed = "MIXTO"
)

// User roles
const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleKitchen = "kitchen"
)

// Table represents a venue table. SessionStart is non-null exactly while
// the table is OCCUPIED.
type Table struct {
	ID           int64        `db:"id" json:"id"`
	Number       int          `db:"number" json:"number"`
	Category     string       `db:"category" json:"category"`
	State        string       `db:"state" json:"state"`
	SessionStart sql.NullTime `db:"session_start" json:"session_start,omitempty"`
	TimeLimitMin int          `db:"time_limit_min" json:"time_limit_min"`
}

// TableStatus is a Table plus live session data for the floor view.
// ElapsedSeconds comes from the database clock and is zero unless the
// table is an occupied time-billed table.
type TableStatus struct {
	Table
	ElapsedSeconds float64 `db:"elapsed_seconds" json:"elapsed_seconds"`
	HourlyRate     float64 `db:"-" json:"hourly_rate"`
}

// Product is a catalog item. Stock is decremented when a line is added
// to a table and restored when the line is voided.
type Product struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     float64   `db:"price" json:"price"`
	Stock     int       `db:"stock" json:"stock"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MenuItem is the public (QR menu) projection of a product: no id, no
// stock counts, nothing administrative.
type MenuItem struct {
	Name     string  `db:"name" json:"name"`
	Price    float64 `db:"price" json:"price"`
	Category string  `db:"category" json:"category"`
}

// OrderLine is one item on a table's running bill. Lines flip to paid in
// bulk when their table closes; until then they may be voided.
type OrderLine struct {
	ID        int64     `db:"id" json:"id"`
	TableID   int64     `db:"table_id" json:"table_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Delivered bool      `db:"delivered" json:"delivered"`
	Paid      bool      `db:"paid" json:"paid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LineDetail joins an unpaid order line with its product for the bill view.
type LineDetail struct {
	ID        int64   `db:"id" json:"id"`
	ProductID int64   `db:"product_id" json:"product_id"`
	Name      string  `db:"name" json:"name"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
	Subtotal  float64 `db:"-" json:"subtotal"`
}

// KitchenLine is a pending (unpaid, undelivered) line for the kitchen feed.
type KitchenLine struct {
	ID          int64     `db:"id" json:"id"`
	TableNumber int       `db:"table_number" json:"table_number"`
	Name        string    `db:"name" json:"name"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Category    string    `db:"category" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Sale is the immutable settlement record written once per table close.
// CashAmount/DigitalAmount carry the split for MIXTO payments; for a
// single-method payment one of them equals Total and the other is zero.
type Sale struct {
	ID            int64     `db:"id" json:"id"`
	TableID       int64     `db:"table_id" json:"table_id"`
	TableCategory string    `db:"table_category" json:"table_category"`
	TimeCharge    float64   `db:"time_charge" json:"time_charge"`
	ProductCharge float64   `db:"product_charge" json:"product_charge"`
	Total         float64   `db:"total" json:"total"`
	Method        string    `db:"method" json:"method"`
	CashAmount    float64   `db:"cash_amount" json:"cash_amount"`
	DigitalAmount float64   `db:"digital_amount" json:"digital_amount"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Expense is an append-only cash outflow within a till period.
type Expense struct {
	ID          int64     `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TillClose is a historical snapshot; its timestamp is the boundary of
// the till period that follows it.
type TillClose struct {
	ID            int64     `db:"id" json:"id"`
	TotalSales    float64   `db:"total_sales" json:"total_sales"`
	TotalExpenses float64   `db:"total_expenses" json:"total_expenses"`
	TableCount    int       `db:"table_count" json:"table_count"`
	ClosedAt      time.Time `db:"closed_at" json:"closed_at"`
}

// User is a staff account. PasswordHash is bcrypt, except legacy rows
// that still hold plaintext and are upgraded on first successful login.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AuditEntry is one row of the forensic change log. Rows are written by
// database triggers on destructive operations; this side only reads
// them. PriorData holds the deleted or overwritten row as JSON.
type AuditEntry struct {
	ID        int64          `db:"id" json:"id"`
	TableName string         `db:"table_name" json:"table_name"`
	Operation string         `db:"operation" json:"operation"`
	RecordID  int64          `db:"record_id" json:"record_id"`
	PriorData types.JSONText `db:"prior_data" json:"prior_data"`
	AlteredAt string         `db:"altered_at" json:"altered_at"`
}

// AuthContext is the resolved identity attached to every request.
type AuthContext struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// DailySales is one bucket of the weekly statistics report.
type DailySales struct {
	Day   string  `db:"day" json:"day"`
	Total float64 `db:"total" json:"total"`
}

// TopProduct is one entry of the best-sellers report.
type TopProduct struct {
	Name     string `db:"name" json:"name"`
	Quantity int    `db:"quantity" json:"quantity"`
}

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentYape, PaymentPlin, PaymentCard, PaymentMixed:
		return true
	}
	return false
}
