package reconciler

import (
	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
)

// Share of the total variance that an order-count gap may explain at most
var orderMismatchCeiling = decimal.NewFromFloat(0.7)

const (
	labelNoVariance         = "No variance"
	labelOrderMismatch      = "Missing or cancelled orders"
	labelOrderAnomaly       = "Platform order count anomaly"
	labelOrdersAligned      = "Order counts aligned"
	labelPricingDiscrepancy = "Pricing / fee discrepancy"

	explainNoVariance    = "POS revenue matches combined platform revenue."
	explainOrderMismatch = "POS recorded more orders than the platforms settled. Likely causes are orders rejected or cancelled on the platform after billing, and orders that fall outside the settlement period."
	explainOrderAnomaly  = "Platforms report more orders than the POS ledger. Check for orders not punched into the POS, duplicate settlement rows and mismatched report periods."
	explainOrdersAligned = "POS and platform order counts agree, so no part of the revenue variance is attributed to missing orders."
	explainPricing       = "Revenue differs beyond what the order gap explains. Likely causes are hidden platform fees, discount or promotion mismatches, and menu price differences between POS and platform."
)

// DecomposeVariance attributes the absolute revenue variance to root-cause
// buckets. The component amounts always sum to |revenueVariance|:
//
//   - no variance: a single neutral component covering 100%
//   - orderVariance > 0: orderVariance × POS average order value, clamped to
//     [0, 70% of the total], as an operational component
//   - orderVariance <= 0: a data-quality component with no amount
//   - the remainder as a financial pricing/fee component when positive
func DecomposeVariance(summary models.ReconciliationSummary) []models.VarianceComponent {
	total := summary.TotalVariance()
	if total.IsZero() {
		return []models.VarianceComponent{{
			Label:                     labelNoVariance,
			Amount:                    decimal.Zero,
			PercentageOfTotalVariance: hundred,
			Classification:            models.ClassificationNeutral,
			Explanation:               explainNoVariance,
		}}
	}

	var components []models.VarianceComponent
	orderMismatch := decimal.Zero

	if summary.OrderVariance > 0 {
		aov := decimal.Zero
		if summary.PosOrders > 0 {
			aov = summary.PosRevenue.Div(decimal.NewFromInt(int64(summary.PosOrders)))
		}
		orderMismatch = clamp(decimal.NewFromInt(int64(summary.OrderVariance)).Mul(aov), decimal.Zero, total.Mul(orderMismatchCeiling))
		if orderMismatch.IsPositive() {
			components = append(components, models.VarianceComponent{
				Label:                     labelOrderMismatch,
				Amount:                    orderMismatch,
				PercentageOfTotalVariance: percentOf(orderMismatch, total),
				Classification:            models.ClassificationOperational,
				Explanation:               explainOrderMismatch,
			})
		}
	} else {
		label, explanation := labelOrderAnomaly, explainOrderAnomaly
		if summary.OrderVariance == 0 {
			label, explanation = labelOrdersAligned, explainOrdersAligned
		}
		components = append(components, models.VarianceComponent{
			Label:                     label,
			Amount:                    decimal.Zero,
			PercentageOfTotalVariance: decimal.Zero,
			Classification:            models.ClassificationDataQuality,
			Explanation:               explanation,
		})
	}

	residual := decimal.Max(total.Sub(orderMismatch), decimal.Zero)
	if residual.IsPositive() {
		components = append(components, models.VarianceComponent{
			Label:                     labelPricingDiscrepancy,
			Amount:                    residual,
			PercentageOfTotalVariance: percentOf(residual, total),
			Classification:            models.ClassificationFinancial,
			Explanation:               explainPricing,
		})
	}

	return components
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
