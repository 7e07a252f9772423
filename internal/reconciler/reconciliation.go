package reconciler

import (
	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Reconcile compares the POS totals with the combined platform totals.
// The variance ratio is |revenueVariance| / posRevenue (zero without POS
// revenue) and the status is PASS when the ratio does not exceed threshold.
// No order-by-order matching is attempted.
func Reconcile(pos, platformA, platformB models.SourceAggregate, threshold decimal.Decimal) models.ReconciliationSummary {
	platformOrders := platformA.OrderCount + platformB.OrderCount
	platformRevenue := platformA.Revenue.Add(platformB.Revenue)
	revenueVariance := pos.Revenue.Sub(platformRevenue)

	ratio := decimal.Zero
	if pos.Revenue.IsPositive() {
		ratio = revenueVariance.Abs().Div(pos.Revenue)
	}

	status := models.StatusFail
	if ratio.LessThanOrEqual(threshold) {
		status = models.StatusPass
	}

	return models.ReconciliationSummary{
		PosOrders:          pos.OrderCount,
		PosRevenue:         pos.Revenue,
		PlatformOrders:     platformOrders,
		PlatformRevenue:    platformRevenue,
		OrderVariance:      pos.OrderCount - platformOrders,
		RevenueVariance:    revenueVariance,
		VariancePercentage: ratio.Mul(hundred),
		Threshold:          threshold,
		Status:             status,
		OrderVarianceNote:  models.OrderVarianceNote,
	}
}

// percentOf returns part / whole in percent points, or zero when whole is zero
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
