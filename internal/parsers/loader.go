package parsers

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// LoadSources decodes the POS and both platform exports concurrently.
// All three inputs are required. The first decode error wins and cancels
// the remaining work; no partial result is returned.
func LoadSources(ctx context.Context, profile Profile, inputs map[models.SourceID]SourceInput) (map[models.SourceID]models.RawTable, error) {
	for _, id := range models.AllSources() {
		input, ok := inputs[id]
		if !ok || input.Open == nil {
			return nil, errors.MissingSourceError(id.String())
		}
	}

	log := logger.GetGlobalLogger().WithComponent("loader")

	var mu sync.Mutex
	tables := make(map[models.SourceID]models.RawTable, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range models.AllSources() {
		cfg, _ := profile.Get(id)
		input := inputs[id]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := Decode(cfg, input)
			if err != nil {
				return err
			}
			mu.Lock()
			tables[cfg.ID] = table
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Loading sources failed")
		return nil, errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "loading sources was interrupted")
	}

	log.WithFields(logger.Fields{
		"pos_rows":        tables[models.SourcePOS].RowCount(),
		"platform_a_rows": tables[models.SourcePlatformA].RowCount(),
		"platform_b_rows": tables[models.SourcePlatformB].RowCount(),
	}).Debug("Loaded sources")

	return tables, nil
}

// ParseTable normalizes a decoded table and binds it to the source schema
func ParseTable(cfg SourceConfig, table models.RawTable) ([]models.SourceRow, error) {
	normalized, err := NormalizeTable(table, cfg.HeaderSkipRows)
	if err != nil {
		return nil, err
	}
	return BindSchema(cfg, normalized)
}
