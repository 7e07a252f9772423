// Package aggregator rolls typed source rows into per-source totals.
//
// Each source is reduced in a single linear pass. The POS ledger counts every
// row that carries an order identifier; the platforms count only the rows
// whose delivery status matches the configured value.
package aggregator

import (
	"strings"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/parsers"
	"sales-reconciliation-service/pkg/logger"
)

// Counts reports whether a row is a valid order for the source
func Counts(cfg parsers.SourceConfig, row models.SourceRow) bool {
	if !cfg.ID.IsPlatform() {
		return strings.TrimSpace(row.OrderID) != ""
	}
	return strings.EqualFold(strings.TrimSpace(row.Status), strings.TrimSpace(cfg.StatusMatch))
}

// Aggregate sums revenue, commission and ad spend over the counted rows.
// The order count is the number of counted rows.
func Aggregate(cfg parsers.SourceConfig, rows []models.SourceRow) models.SourceAggregate {
	agg := models.NewSourceAggregate(cfg.ID, cfg.Name)
	agg.RowsRead = len(rows)

	for _, row := range rows {
		if !Counts(cfg, row) {
			agg.RowsExcluded++
			continue
		}
		agg.OrderCount++
		agg.Revenue = agg.Revenue.Add(parsers.CleanNumber(row.Revenue))
		agg.Commission = agg.Commission.Add(parsers.CleanNumber(row.Commission))
		agg.AdSpend = agg.AdSpend.Add(parsers.CleanNumber(row.AdSpend))
	}

	logger.GetGlobalLogger().WithComponent("aggregator").WithFields(logger.Fields{
		"source":        cfg.ID,
		"rows_read":     agg.RowsRead,
		"rows_excluded": agg.RowsExcluded,
		"orders":        agg.OrderCount,
		"revenue":       agg.Revenue.StringFixed(2),
	}).Debug("Aggregated source")

	return agg
}
