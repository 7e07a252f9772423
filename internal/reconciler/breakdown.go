package reconciler

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/aggregator"
	"sales-reconciliation-service/internal/models"
)

// BuildPlatformBreakdown returns each platform's share of the combined
// platform revenue along with its average order value
func BuildPlatformBreakdown(platforms ...models.SourceAggregate) []models.PlatformBreakdown {
	total := decimal.Zero
	for _, p := range platforms {
		total = total.Add(p.Revenue)
	}

	breakdown := make([]models.PlatformBreakdown, 0, len(platforms))
	for _, p := range platforms {
		breakdown = append(breakdown, models.PlatformBreakdown{
			Platform:                p.Source,
			Name:                    p.Name,
			Orders:                  p.OrderCount,
			Revenue:                 p.Revenue,
			MarketShare:             percentOf(p.Revenue, total),
			AverageOrderValue:       p.AverageOrderValue(),
			Commission:              p.Commission,
			AdSpend:                 p.AdSpend,
			EffectiveCommissionRate: p.EffectiveCommissionRate().Mul(hundred),
		})
	}
	return breakdown
}

// CommissionFindings flags platforms whose effective commission rate falls
// outside [min, max]. Platforms without revenue are skipped.
func CommissionFindings(min, max decimal.Decimal, platforms ...models.SourceAggregate) []models.Finding {
	var findings []models.Finding
	for _, p := range platforms {
		if !p.Revenue.IsPositive() {
			continue
		}

		rate := p.EffectiveCommissionRate()
		var kind models.FindingKind
		var direction string
		switch {
		case rate.GreaterThan(max):
			kind, direction = models.FindingCommissionAboveRange, "above"
		case rate.LessThan(min):
			kind, direction = models.FindingCommissionBelowRange, "below"
		default:
			continue
		}

		findings = append(findings, models.Finding{
			Platform: p.Source,
			Kind:     kind,
			Message: fmt.Sprintf("%s effective commission %s%% is %s the expected %s%%-%s%% range",
				p.Name, rate.Mul(hundred).StringFixed(2), direction,
				min.Mul(hundred).StringFixed(2), max.Mul(hundred).StringFixed(2)),
			Rate:     rate,
			RangeMin: min,
			RangeMax: max,
		})
	}
	return findings
}

// UndatedFindings reports sources whose counted rows had unparseable dates
func UndatedFindings(series []aggregator.Series, names map[models.SourceID]string) []models.Finding {
	var findings []models.Finding
	for _, s := range series {
		if s.Undated == 0 {
			continue
		}
		findings = append(findings, models.Finding{
			Platform: s.Source,
			Kind:     models.FindingUndatedRows,
			Message: fmt.Sprintf("%d counted %s rows have no parseable date and are left out of the performance series",
				s.Undated, names[s.Source]),
			Rate:     decimal.Zero,
			RangeMin: decimal.Zero,
			RangeMax: decimal.Zero,
		})
	}
	return findings
}

// BuildPerformanceData merges the per-source series into one point per
// period. Platform totals and the estimated payout exclude POS.
func BuildPerformanceData(series []aggregator.Series, granularity models.Granularity, discountFraction decimal.Decimal) []models.PerformancePoint {
	points := make(map[time.Time]*models.PerformancePoint)
	payoutBase := make(map[time.Time]decimal.Decimal)

	for _, s := range series {
		for _, period := range s.Periods {
			point, ok := points[period.Start]
			if !ok {
				point = &models.PerformancePoint{
					Date:            period.Start,
					Label:           granularity.Label(period.Start),
					Orders:          make(map[models.SourceID]int),
					Revenue:         make(map[models.SourceID]decimal.Decimal),
					TotalRevenue:    decimal.Zero,
					EstimatedPayout: decimal.Zero,
				}
				points[period.Start] = point
				payoutBase[period.Start] = decimal.Zero
			}

			point.Orders[s.Source] += period.Orders
			point.Revenue[s.Source] = point.Revenue[s.Source].Add(period.Revenue)

			if s.Source.IsPlatform() {
				point.TotalOrders += period.Orders
				point.TotalRevenue = point.TotalRevenue.Add(period.Revenue)
				payoutBase[period.Start] = payoutBase[period.Start].
					Add(period.Revenue).Sub(period.Commission).Sub(period.AdSpend)
			}
		}
	}

	result := make([]models.PerformancePoint, 0, len(points))
	for start, point := range points {
		point.EstimatedPayout = payoutBase[start].Sub(point.TotalRevenue.Mul(discountFraction))
		result = append(result, *point)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// PeriodLabel describes the span covered by the performance series, or the
// period containing now when no row carried a usable date
func PeriodLabel(points []models.PerformancePoint, granularity models.Granularity, now time.Time) string {
	if len(points) == 0 {
		return granularity.Label(granularity.Truncate(now))
	}
	return granularity.PeriodLabel(points[0].Date, points[len(points)-1].Date)
}
