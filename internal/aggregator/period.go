package aggregator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/parsers"
)

// PeriodTotals holds the counted rows of one source within one period
type PeriodTotals struct {
	Start      time.Time
	Orders     int
	Revenue    decimal.Decimal
	Commission decimal.Decimal
	AdSpend    decimal.Decimal
}

// Series is the per-period view of one source. Undated counts the counted
// rows whose date could not be parsed; they are left out of Periods only.
type Series struct {
	Source      models.SourceID
	Granularity models.Granularity
	Periods     []PeriodTotals
	Undated     int
}

// BucketByPeriod groups the counted rows by the period their date falls in.
// Periods are sorted by start. A source without a DateKey yields no periods.
func BucketByPeriod(cfg parsers.SourceConfig, rows []models.SourceRow, granularity models.Granularity) Series {
	series := Series{Source: cfg.ID, Granularity: granularity}
	if cfg.DateKey == "" {
		return series
	}

	buckets := make(map[time.Time]*PeriodTotals)
	for _, row := range rows {
		if !Counts(cfg, row) {
			continue
		}

		date, err := models.ParseTimeWithFormats(row.Date)
		if err != nil {
			series.Undated++
			continue
		}

		start := granularity.Truncate(date)
		bucket, ok := buckets[start]
		if !ok {
			bucket = &PeriodTotals{
				Start:      start,
				Revenue:    decimal.Zero,
				Commission: decimal.Zero,
				AdSpend:    decimal.Zero,
			}
			buckets[start] = bucket
		}
		bucket.Orders++
		bucket.Revenue = bucket.Revenue.Add(parsers.CleanNumber(row.Revenue))
		bucket.Commission = bucket.Commission.Add(parsers.CleanNumber(row.Commission))
		bucket.AdSpend = bucket.AdSpend.Add(parsers.CleanNumber(row.AdSpend))
	}

	series.Periods = make([]PeriodTotals, 0, len(buckets))
	for _, bucket := range buckets {
		series.Periods = append(series.Periods, *bucket)
	}
	sort.Slice(series.Periods, func(i, j int) bool {
		return series.Periods[i].Start.Before(series.Periods[j].Start)
	})

	return series
}
