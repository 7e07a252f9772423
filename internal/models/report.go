package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the PASS/FAIL outcome of a reconciliation
type ReconciliationStatus string

const (
	StatusPass ReconciliationStatus = "PASS"
	StatusFail ReconciliationStatus = "FAIL"
)

// OrderVarianceNote documents what the order delta means
const OrderVarianceNote = "order variance is POS orders minus platform orders; it approximates orders missing from platform settlement and is not an order-by-order match"

// ReconciliationSummary compares POS totals with the combined platform totals.
// Variances are signed POS minus platform; VariancePercentage is in percent points.
type ReconciliationSummary struct {
	PosOrders          int                  `json:"pos_orders"`
	PosRevenue         decimal.Decimal      `json:"pos_revenue"`
	PlatformOrders     int                  `json:"platform_orders"`
	PlatformRevenue    decimal.Decimal      `json:"platform_revenue"`
	OrderVariance      int                  `json:"order_variance"`
	RevenueVariance    decimal.Decimal      `json:"revenue_variance"`
	VariancePercentage decimal.Decimal      `json:"variance_percentage"`
	Threshold          decimal.Decimal      `json:"threshold"`
	Status             ReconciliationStatus `json:"status"`
	OrderVarianceNote  string               `json:"order_variance_note"`
}

// TotalVariance returns the absolute revenue variance
func (s ReconciliationSummary) TotalVariance() decimal.Decimal {
	return s.RevenueVariance.Abs()
}

// IsPassing reports whether the variance is within tolerance
func (s ReconciliationSummary) IsPassing() bool {
	return s.Status == StatusPass
}

// Classification tags a variance component with its root-cause family
type Classification string

const (
	ClassificationOperational Classification = "operational"
	ClassificationFinancial   Classification = "financial"
	ClassificationDataQuality Classification = "data-quality"
	ClassificationNeutral     Classification = "neutral"
)

// VarianceComponent is one root-cause bucket of the absolute revenue variance
type VarianceComponent struct {
	Label                     string          `json:"label"`
	Amount                    decimal.Decimal `json:"amount"`
	PercentageOfTotalVariance decimal.Decimal `json:"percentage_of_total_variance"`
	Classification            Classification  `json:"classification"`
	Explanation               string          `json:"explanation"`
}

// VarianceAnalysis groups the decomposition with the total it partitions
type VarianceAnalysis struct {
	TotalVariance decimal.Decimal     `json:"total_variance"`
	Components    []VarianceComponent `json:"components"`
}

// LineSign describes how a waterfall line moves the running total
type LineSign string

const (
	SignBaseline LineSign = "baseline"
	SignPositive LineSign = "positive"
	SignNegative LineSign = "negative"
)

// WaterfallLine is one step between gross platform revenue and net payout.
// Negative lines are subtracted from the baseline; Sign carries the direction.
type WaterfallLine struct {
	Label             string          `json:"label"`
	Amount            decimal.Decimal `json:"amount"`
	PercentageOfGross decimal.Decimal `json:"percentage_of_gross"`
	Sign              LineSign        `json:"sign"`
	Estimated         bool            `json:"estimated"`
}

// FinancialAnalysis is the gross-to-net payout breakdown
type FinancialAnalysis struct {
	GrossRevenue      decimal.Decimal `json:"gross_revenue"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	TotalAdSpend      decimal.Decimal `json:"total_ad_spend"`
	EstimatedDiscount decimal.Decimal `json:"estimated_discount"`
	NetPayout         decimal.Decimal `json:"net_payout"`
	DiscountFraction  decimal.Decimal `json:"discount_fraction"`
	Lines             []WaterfallLine `json:"lines"`
}

// PlatformBreakdown describes one platform's share of platform revenue.
// MarketShare and EffectiveCommissionRate are in percent points.
type PlatformBreakdown struct {
	Platform                SourceID        `json:"platform"`
	Name                    string          `json:"name"`
	Orders                  int             `json:"orders"`
	Revenue                 decimal.Decimal `json:"revenue"`
	MarketShare             decimal.Decimal `json:"market_share"`
	AverageOrderValue       decimal.Decimal `json:"average_order_value"`
	Commission              decimal.Decimal `json:"commission"`
	AdSpend                 decimal.Decimal `json:"ad_spend"`
	EffectiveCommissionRate decimal.Decimal `json:"effective_commission_rate"`
}

// PerformancePoint is one period of the performance series.
// TotalOrders and TotalRevenue cover the platforms only.
type PerformancePoint struct {
	Date            time.Time                    `json:"date"`
	Label           string                       `json:"label"`
	Orders          map[SourceID]int             `json:"orders"`
	Revenue         map[SourceID]decimal.Decimal `json:"revenue"`
	TotalOrders     int                          `json:"total_orders"`
	TotalRevenue    decimal.Decimal              `json:"total_revenue"`
	EstimatedPayout decimal.Decimal              `json:"estimated_payout"`
}

// FindingKind names the rule that produced a finding
type FindingKind string

const (
	FindingCommissionAboveRange FindingKind = "commission_above_range"
	FindingCommissionBelowRange FindingKind = "commission_below_range"
	FindingUndatedRows          FindingKind = "undated_rows"
)

// Finding is an observation attached to a report. Rate and range are fractions.
type Finding struct {
	Platform SourceID        `json:"platform"`
	Kind     FindingKind     `json:"kind"`
	Message  string          `json:"message"`
	Rate     decimal.Decimal `json:"rate"`
	RangeMin decimal.Decimal `json:"range_min"`
	RangeMax decimal.Decimal `json:"range_max"`
}

// Report is the complete result of one generation call
type Report struct {
	ID                string                `json:"id"`
	Period            string                `json:"period"`
	Granularity       Granularity           `json:"granularity"`
	GeneratedAt       time.Time             `json:"generated_at"`
	Demo              bool                  `json:"demo,omitempty"`
	Sources           []SourceAggregate     `json:"sources"`
	Summary           ReconciliationSummary `json:"summary"`
	PlatformBreakdown []PlatformBreakdown   `json:"platform_breakdown"`
	FinancialAnalysis FinancialAnalysis     `json:"financial_analysis"`
	VarianceAnalysis  VarianceAnalysis      `json:"variance_analysis"`
	PerformanceData   []PerformancePoint    `json:"performance_data"`
	Findings          []Finding             `json:"findings"`
}

// Source returns the aggregate for the given source
func (r *Report) Source(id SourceID) (SourceAggregate, bool) {
	for _, s := range r.Sources {
		if s.Source == id {
			return s, true
		}
	}
	return SourceAggregate{}, false
}
