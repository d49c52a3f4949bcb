package service

import (
	"testing"

	"billiard-pos/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildTotals(t *testing.T) {
	sales := []models.Sale{
		{ID: 1, Total: 15, Method: models.PaymentCash, CashAmount: 15},
		{ID: 2, Total: 25, Method: models.PaymentYape, DigitalAmount: 25},
	}

	tt := buildTotals(40, 12, 28, 12, 15, 25, sales)

	assert.Equal(t, 40.0, tt.GrossRevenue)
	assert.Equal(t, 12.0, tt.TotalExpenses)
	assert.Equal(t, 28.0, tt.NetTotal)
	assert.Equal(t, 15.0, tt.CashRevenue)
	assert.Equal(t, 25.0, tt.DigitalRevenue)
	assert.Equal(t, 3.0, tt.CashInDrawer)
	assert.Len(t, tt.Sales, 2)
}

func TestBuildTotalsDrawerMath(t *testing.T) {
	// Expenses leave the drawer even when revenue came in digitally, so a
	// digital-heavy day can leave the drawer negative.
	tt := buildTotals(100, 30, 60, 40, 10, 90, nil)

	assert.Equal(t, tt.CashRevenue-tt.TotalExpenses, tt.CashInDrawer)
	assert.Equal(t, -20.0, tt.CashInDrawer)
	assert.Equal(t, tt.GrossRevenue-tt.TotalExpenses, tt.NetTotal)
	assert.Equal(t, tt.CashRevenue+tt.DigitalRevenue, tt.GrossRevenue)
}

func TestBuildTotalsEmptyPeriod(t *testing.T) {
	tt := buildTotals(0, 0, 0, 0, 0, 0, nil)

	assert.Equal(t, 0.0, tt.GrossRevenue)
	assert.Equal(t, 0.0, tt.NetTotal)
	assert.Equal(t, 0.0, tt.CashInDrawer)
	assert.Empty(t, tt.Sales)
}
