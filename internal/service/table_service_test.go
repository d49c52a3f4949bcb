package service

import (
	"errors"
	"testing"

	"billiard-pos/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildDetailTimeBilled(t *testing.T) {
	lines := []models.LineDetail{
		{ID: 1, Name: "Pilsen 630ml", Quantity: 2, UnitPrice: 5.0},
	}

	// 34 elapsed minutes at rate 10: past the grace period but within the
	// first half-hour block, so the time charge is one block.
	d := buildDetail(3, models.TableCategoryTimeBilled, true, 34, 10, lines)

	assert.Equal(t, int64(3), d.TableID)
	assert.Equal(t, 34, d.ElapsedMinutes)
	assert.Equal(t, 5.0, d.TimeCharge)
	assert.Equal(t, 10.0, d.ProductCharge)
	assert.Equal(t, 15.0, d.Total)
	assert.Equal(t, 10.0, d.Lines[0].Subtotal)
}

func TestBuildDetailSecondBlock(t *testing.T) {
	d := buildDetail(1, models.TableCategoryTimeBilled, true, 36, 10, nil)
	assert.Equal(t, 10.0, d.TimeCharge)
	assert.Equal(t, 10.0, d.Total)
}

func TestBuildDetailFreeTableBillsNoTime(t *testing.T) {
	lines := []models.LineDetail{
		{ID: 2, Name: "Cusqueña 620ml", Quantity: 1, UnitPrice: 7.0},
	}

	// No running session: a free time-billed table must not show the
	// one-block minimum, only its unpaid products.
	d := buildDetail(4, models.TableCategoryTimeBilled, false, 0, 10, lines)

	assert.Equal(t, 0.0, d.TimeCharge)
	assert.Equal(t, 7.0, d.ProductCharge)
	assert.Equal(t, 7.0, d.Total)
}

func TestBuildDetailFlatTableHasNoTimeCharge(t *testing.T) {
	lines := []models.LineDetail{
		{ID: 7, Name: "Inca Kola 1L", Quantity: 3, UnitPrice: 8.0},
	}

	d := buildDetail(9, models.TableCategoryFlat, true, 120, 10, lines)

	assert.Equal(t, 0.0, d.TimeCharge)
	assert.Equal(t, 24.0, d.ProductCharge)
	assert.Equal(t, 24.0, d.Total)
}

func TestBuildDetailEmptyBill(t *testing.T) {
	d := buildDetail(2, models.TableCategoryTimeBilled, true, 0, 10, nil)

	// A session closed immediately still pays the one-block minimum.
	assert.Equal(t, 5.0, d.TimeCharge)
	assert.Equal(t, 0.0, d.ProductCharge)
	assert.Equal(t, 5.0, d.Total)
	assert.Empty(t, d.Lines)
}

func TestBuildDetailSubtotalsSum(t *testing.T) {
	lines := []models.LineDetail{
		{Quantity: 2, UnitPrice: 5.0},
		{Quantity: 1, UnitPrice: 12.5},
		{Quantity: 4, UnitPrice: 3.0},
	}

	d := buildDetail(1, models.TableCategoryFlat, false, 0, 10, lines)

	var sum float64
	for _, l := range d.Lines {
		sum += l.Subtotal
	}
	assert.Equal(t, sum, d.ProductCharge)
	assert.Equal(t, 34.5, d.ProductCharge)
}

func TestRejectReason(t *testing.T) {
	assert.Equal(t, "conflict", rejectReason(models.Conflictf("busy")))
	assert.Equal(t, "not_found", rejectReason(models.NotFound("table", 4)))
	assert.Equal(t, "validation", rejectReason(models.Validationf("bad")))
	assert.Equal(t, "storage", rejectReason(errors.New("connection reset")))
}
