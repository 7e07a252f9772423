package reconciler

import (
	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
)

const (
	LineGross      = "Gross platform revenue"
	LineCommission = "Platform commission"
	LineAdSpend    = "Ad spend and deductions"
	LineDiscount   = "Estimated discounts"
	LineNetPayout  = "Net payout"
)

// BuildWaterfall derives the gross-to-net payout lines. Discounts are not
// observable in the exports, so they are estimated as discountFraction of
// gross and flagged as an estimate. gross minus every negative line equals
// the net payout exactly.
func BuildWaterfall(gross decimal.Decimal, platformA, platformB models.SourceAggregate, discountFraction decimal.Decimal) []models.WaterfallLine {
	return BuildFinancialAnalysis(gross, platformA, platformB, discountFraction).Lines
}

// BuildFinancialAnalysis returns the waterfall together with its totals
func BuildFinancialAnalysis(gross decimal.Decimal, platformA, platformB models.SourceAggregate, discountFraction decimal.Decimal) models.FinancialAnalysis {
	commission := platformA.Commission.Add(platformB.Commission)
	adSpend := platformA.AdSpend.Add(platformB.AdSpend)
	discount := gross.Mul(discountFraction)
	net := gross.Sub(commission).Sub(adSpend).Sub(discount)

	line := func(label string, amount decimal.Decimal, sign models.LineSign, estimated bool) models.WaterfallLine {
		return models.WaterfallLine{
			Label:             label,
			Amount:            amount,
			PercentageOfGross: percentOf(amount, gross),
			Sign:              sign,
			Estimated:         estimated,
		}
	}

	return models.FinancialAnalysis{
		GrossRevenue:      gross,
		TotalCommission:   commission,
		TotalAdSpend:      adSpend,
		EstimatedDiscount: discount,
		NetPayout:         net,
		DiscountFraction:  discountFraction,
		Lines: []models.WaterfallLine{
			line(LineGross, gross, models.SignBaseline, false),
			line(LineCommission, commission, models.SignNegative, false),
			line(LineAdSpend, adSpend, models.SignNegative, false),
			line(LineDiscount, discount, models.SignNegative, true),
			line(LineNetPayout, net, models.SignPositive, false),
		},
	}
}
