// Package billing converts elapsed session time into a currency charge
// using the venue's block-rounding policy: time is sold in 30-minute
// blocks, a 5-minute grace is subtracted before rounding, and every
// session pays for at least one block.
package billing

import (
	"math"

	"billiard-pos/internal/models"
)

// Policy constants. The grace period absorbs minor overage inside a
// block boundary: a 34-minute session computes 34-5=29, ceil(29/30)=1
// block, so only 30 minutes are charged. Undercharging here is intended.
const (
	GraceMinutes = 5
	BlockMinutes = 30
)

// ElapsedMinutes rounds elapsed seconds up to whole minutes.
func ElapsedMinutes(elapsedSeconds float64) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	return int(math.Ceil(elapsedSeconds / 60.0))
}

// TimeCharge returns the billable amount for a time-billed session of
// elapsedMinutes at hourlyRate. A zero-minute session still pays one
// minimum block.
func TimeCharge(elapsedMinutes int, hourlyRate float64) float64 {
	billable := elapsedMinutes - GraceMinutes
	blocks := int(math.Ceil(float64(billable) / float64(BlockMinutes)))
	if blocks < 1 {
		blocks = 1
	}
	return float64(blocks*BlockMinutes) / 60.0 * hourlyRate
}

// splitTolerance absorbs sub-cent float drift when validating a MIXTO
// split against the computed bill total.
const splitTolerance = 0.005

// SplitPayment resolves the cash/digital buckets a settlement lands in.
// EFECTIVO puts the whole total in cash, MIXTO uses the amounts the
// client declared (which must add up to the total), every other method
// is digital. The buckets feed the till's drawer math, so they must sum
// to the total exactly.
func SplitPayment(method string, total, cash, digital float64) (cashAmount, digitalAmount float64, err error) {
	switch method {
	case models.PaymentCash:
		return total, 0, nil
	case models.PaymentMixed:
		if math.Abs((cash+digital)-total) > splitTolerance {
			return 0, 0, models.Validationf(
				"mixed payment split %.2f + %.2f does not match total %.2f", cash, digital, total)
		}
		return cash, digital, nil
	case models.PaymentYape, models.PaymentPlin, models.PaymentCard:
		return 0, total, nil
	default:
		return 0, 0, models.Validationf("unknown payment method %q", method)
	}
}

// ChargeForCategory applies the billing policy per table category:
// only TIME_BILLED tables accrue a time charge, flat-consumption
// tables always bill 0 for time.
func ChargeForCategory(category string, elapsedMinutes int, hourlyRate float64) float64 {
	if category != models.TableCategoryTimeBilled {
		return 0
	}
	return TimeCharge(elapsedMinutes, hourlyRate)
}
