// Package reconciler compares POS sales with delivery-platform settlements.
//
// The package coordinates the report workflow:
//   - decoding the three exports concurrently (see parsers.LoadSources)
//   - header normalization and schema binding per source
//   - per-source aggregation and period bucketing
//   - reconciliation, variance decomposition and the payout waterfall
//   - platform breakdown and commission findings
//
// Every stage is a pure function over values built during the call; the
// Generator holds only configuration, so one Generator may serve concurrent
// requests.
//
// Example usage:
//
//	gen, err := reconciler.NewGenerator(reconciler.DefaultConfig())
//	report, err := gen.Generate(ctx, map[models.SourceID]parsers.SourceInput{
//		models.SourcePOS:       parsers.FileInput("pos.csv"),
//		models.SourcePlatformA: parsers.FileInput("platform_a.xlsx"),
//		models.SourcePlatformB: parsers.FileInput("platform_b.csv"),
//	})
package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sales-reconciliation-service/internal/aggregator"
	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/parsers"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// Generator builds reconciliation reports
type Generator struct {
	config Config
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a Generator
type Option func(*Generator)

// WithClock sets the clock used for GeneratedAt and the fallback period
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(g *Generator) {
		g.logger = log.WithComponent("report_generator")
	}
}

// WithIDGenerator sets the report ID source
func WithIDGenerator(newID func() string) Option {
	return func(g *Generator) {
		g.newID = newID
	}
}

// NewGenerator validates the configuration and creates a Generator
func NewGenerator(config Config, opts ...Option) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("report_generator"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}

	g.logger.WithFields(logger.Fields{
		"variance_threshold": config.VarianceThreshold,
		"discount_fraction":  config.DiscountFraction,
		"granularity":        config.Granularity,
	}).Debug("Created report generator")

	return g, nil
}

// Config returns the generator configuration
func (g *Generator) Config() Config {
	return g.config
}

// WithGranularity returns a copy of the generator bucketing by granularity
func (g *Generator) WithGranularity(granularity models.Granularity) (*Generator, error) {
	if !granularity.IsValid() {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "granularity", granularity, nil).
			WithSuggestion("use daily, weekly or monthly")
	}
	clone := *g
	clone.config.Granularity = granularity
	return &clone, nil
}

// Generate decodes the three exports and builds the report. All three inputs
// are required; any failure aborts the whole generation.
func (g *Generator) Generate(ctx context.Context, inputs map[models.SourceID]parsers.SourceInput) (*models.Report, error) {
	tables, err := parsers.LoadSources(ctx, g.config.Profile, inputs)
	if err != nil {
		return nil, err
	}
	return g.GenerateFromTables(tables)
}

// GenerateFromTables builds the report from already decoded tables
func (g *Generator) GenerateFromTables(tables map[models.SourceID]models.RawTable) (*models.Report, error) {
	tracker := logger.NewStageTracker("generate_report", g.logger)

	rows := make(map[models.SourceID][]models.SourceRow, len(tables))
	total := 0
	for _, id := range models.AllSources() {
		table, ok := tables[id]
		if !ok {
			err := errors.MissingSourceError(id.String())
			tracker.CompleteWithError(err)
			return nil, err
		}

		cfg, _ := g.config.Profile.Get(id)
		sourceRows, err := parsers.ParseTable(cfg, table)
		if err != nil {
			tracker.CompleteWithError(err)
			return nil, err
		}
		rows[id] = sourceRows
		total += len(sourceRows)
	}
	tracker.Stage("normalize", total)

	aggregates := make(map[models.SourceID]models.SourceAggregate, len(rows))
	series := make([]aggregator.Series, 0, len(rows))
	for _, id := range models.AllSources() {
		cfg, _ := g.config.Profile.Get(id)
		aggregates[id] = aggregator.Aggregate(cfg, rows[id])
		series = append(series, aggregator.BucketByPeriod(cfg, rows[id], g.config.Granularity))
	}
	tracker.Stage("aggregate", len(aggregates))

	report := g.assemble(
		aggregates[models.SourcePOS],
		aggregates[models.SourcePlatformA],
		aggregates[models.SourcePlatformB],
		series,
	)
	tracker.Stage("reconcile", len(report.VarianceAnalysis.Components))
	tracker.Complete()

	g.logger.WithFields(logger.Fields{
		"report_id":           report.ID,
		"status":              report.Summary.Status,
		"variance_percentage": report.Summary.VariancePercentage.StringFixed(2),
	}).Info("Report generated")

	return report, nil
}

// GenerateFromAggregates builds a report from known totals. It backs the
// explicit demo path and is never used to recover from a failed upload.
func (g *Generator) GenerateFromAggregates(pos, platformA, platformB models.SourceAggregate) *models.Report {
	report := g.assemble(pos, platformA, platformB, nil)
	report.Demo = true
	return report
}

func (g *Generator) assemble(pos, platformA, platformB models.SourceAggregate, series []aggregator.Series) *models.Report {
	now := g.now().UTC()
	discount := g.config.Discount()
	commissionMin, commissionMax := g.config.CommissionRange()

	summary := Reconcile(pos, platformA, platformB, g.config.Threshold())
	components := DecomposeVariance(summary)
	performance := BuildPerformanceData(series, g.config.Granularity, discount)

	names := map[models.SourceID]string{
		pos.Source:       pos.Name,
		platformA.Source: platformA.Name,
		platformB.Source: platformB.Name,
	}
	findings := CommissionFindings(commissionMin, commissionMax, platformA, platformB)
	findings = append(findings, UndatedFindings(series, names)...)

	return &models.Report{
		ID:                g.newID(),
		Period:            PeriodLabel(performance, g.config.Granularity, now),
		Granularity:       g.config.Granularity,
		GeneratedAt:       now,
		Sources:           []models.SourceAggregate{pos, platformA, platformB},
		Summary:           summary,
		PlatformBreakdown: BuildPlatformBreakdown(platformA, platformB),
		FinancialAnalysis: BuildFinancialAnalysis(summary.PlatformRevenue, platformA, platformB, discount),
		VarianceAnalysis: models.VarianceAnalysis{
			TotalVariance: summary.TotalVariance(),
			Components:    components,
		},
		PerformanceData: performance,
		Findings:        findings,
	}
}
