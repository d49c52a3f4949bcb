package billing

import (
	"testing"

	"billiard-pos/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTimeCharge(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		rate    float64
		want    float64
	}{
		{"zero minutes still pays one block", 0, 10, 5.0},
		{"inside grace", 4, 10, 5.0},
		{"exactly one block", 30, 10, 5.0},
		{"grace absorbs overage", 34, 10, 5.0},
		{"34 minus grace is 29, one block", 34, 10, 5.0},
		{"just past grace window", 36, 10, 10.0},
		{"boundary at grace plus block", 35, 10, 5.0},
		{"two full blocks", 65, 10, 10.0},
		{"three blocks", 95, 10, 15.0},
		{"different rate", 34, 12, 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeCharge(tt.minutes, tt.rate))
		})
	}
}

// The charge must be a non-decreasing step function of elapsed minutes,
// constant within each 30-minute window after the grace subtraction.
func TestTimeChargeMonotonic(t *testing.T) {
	prev := TimeCharge(0, 10)
	for m := 1; m <= 600; m++ {
		cur := TimeCharge(m, 10)
		assert.GreaterOrEqual(t, cur, prev, "charge decreased at minute %d", m)
		prev = cur
	}
}

func TestTimeChargeStepWidth(t *testing.T) {
	// After the first block, each step lasts exactly BlockMinutes.
	for m := GraceMinutes + BlockMinutes + 1; m < 300; m += BlockMinutes {
		stepStart := TimeCharge(m, 10)
		stepEnd := TimeCharge(m+BlockMinutes-1, 10)
		assert.Equal(t, stepStart, stepEnd, "charge changed inside block starting at minute %d", m)
		assert.Greater(t, TimeCharge(m+BlockMinutes, 10), stepEnd)
	}
}

func TestChargeForCategory(t *testing.T) {
	assert.Equal(t, 5.0, ChargeForCategory(models.TableCategoryTimeBilled, 34, 10))
	assert.Equal(t, 0.0, ChargeForCategory(models.TableCategoryFlat, 34, 10))
	assert.Equal(t, 0.0, ChargeForCategory("", 34, 10))
}

func TestSplitPayment(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		total       float64
		cash        float64
		digital     float64
		wantCash    float64
		wantDigital float64
		wantErr     bool
	}{
		{"cash takes full total", models.PaymentCash, 15, 0, 0, 15, 0, false},
		{"yape is digital", models.PaymentYape, 20, 0, 0, 0, 20, false},
		{"plin is digital", models.PaymentPlin, 20, 0, 0, 0, 20, false},
		{"card is digital", models.PaymentCard, 12.5, 0, 0, 0, 12.5, false},
		{"mixed valid split", models.PaymentMixed, 30, 10, 20, 10, 20, false},
		{"mixed split short", models.PaymentMixed, 30, 10, 15, 0, 0, true},
		{"mixed split over", models.PaymentMixed, 30, 20, 20, 0, 0, true},
		{"unknown method", "BITCOIN", 30, 0, 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotCash, gotDigital, err := SplitPayment(tt.method, tt.total, tt.cash, tt.digital)
			if tt.wantErr {
				assert.Error(t, err)
				var verr *models.ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantCash, gotCash)
			assert.Equal(t, tt.wantDigital, gotDigital)
			assert.Equal(t, tt.total, gotCash+gotDigital)
		})
	}
}

func TestElapsedMinutes(t *testing.T) {
	assert.Equal(t, 0, ElapsedMinutes(0))
	assert.Equal(t, 0, ElapsedMinutes(-3))
	assert.Equal(t, 1, ElapsedMinutes(1))
	assert.Equal(t, 1, ElapsedMinutes(60))
	assert.Equal(t, 2, ElapsedMinutes(61))
	assert.Equal(t, 34, ElapsedMinutes(34 * 60))
}
