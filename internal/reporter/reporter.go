// Package reporter renders reconciliation reports for people and programs.
//
// Supported output formats:
//   - Console: human-readable sections for terminal display
//   - JSON: the full report for programmatic consumption
//   - CSV: one row per reported figure for spreadsheet applications
//
// Example usage:
//
//	gen, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatJSON})
//	err = gen.GenerateReport(report, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

var decimalHundred = decimal.NewFromInt(100)

// CSV sections
const (
	SectionSummary     = "summary"
	SectionSource      = "source"
	SectionPlatform    = "platform"
	SectionVariance    = "variance"
	SectionWaterfall   = "waterfall"
	SectionPerformance = "performance"
	SectionFinding     = "finding"
)

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	IncludeSources     bool `json:"include_sources"`
	IncludePerformance bool `json:"include_performance"`
	IncludeFindings    bool `json:"include_findings"`

	// MaxPerformanceRows limits the console performance table; 0 prints all
	MaxPerformanceRows int `json:"max_performance_rows"`

	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		IncludeSources:     true,
		IncludePerformance: true,
		IncludeFindings:    true,
		MaxPerformanceRows: 31,
		CSVDelimiter:       ',',
		CSVHeaders:         true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output_format", c.Format, nil).
			WithSuggestion("use console, json or csv")
	}
	if c.MaxPerformanceRows < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max_performance_rows", c.MaxPerformanceRows, nil)
	}
	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n' || c.CSVDelimiter == '\r' {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "csv_delimiter", string(c.CSVDelimiter), nil)
	}
	return nil
}

// ReportGenerator renders reports in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator. A nil config uses the
// defaults.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ReportGenerator{config: config}, nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

// GenerateReport writes the report to writer
func (rg *ReportGenerator) GenerateReport(report *models.Report, writer io.Writer) error {
	if report == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "render report", fmt.Errorf("report cannot be nil"))
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output_format", rg.config.Format, nil)
	}
}

func (rg *ReportGenerator) generateConsoleReport(report *models.Report, writer io.Writer) error {
	cw := &consoleWriter{w: writer}

	cw.printf("SALES RECONCILIATION REPORT\n")
	if report.Demo {
		cw.printf("*** DEMO DATA: built from fixed sample totals, not from uploaded files ***\n")
	}
	cw.printf("Report ID: %s\n", report.ID)
	cw.printf("Period:    %s (%s)\n", report.Period, report.Granularity)
	cw.printf("Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	cw.printf("=== SUMMARY ===\n")
	rg.printSummary(cw, report.Summary)
	cw.printf("\n")

	if rg.config.IncludeSources && len(report.Sources) > 0 {
		cw.printf("=== SOURCES ===\n")
		for _, s := range report.Sources {
			cw.printf("  %-12s orders %6d  revenue %14s  rows read %d, excluded %d\n",
				s.Name, s.OrderCount, s.Revenue.StringFixed(2), s.RowsRead, s.RowsExcluded)
		}
		cw.printf("\n")
	}

	cw.printf("=== PLATFORM BREAKDOWN ===\n")
	for _, p := range report.PlatformBreakdown {
		cw.printf("  %-12s orders %6d  revenue %14s  share %6s%%  AOV %10s  commission %6s%%\n",
			p.Name, p.Orders, p.Revenue.StringFixed(2), p.MarketShare.StringFixed(1),
			p.AverageOrderValue.StringFixed(2), p.EffectiveCommissionRate.StringFixed(1))
	}
	cw.printf("\n")

	cw.printf("=== VARIANCE ANALYSIS ===\n")
	cw.printf("Total variance: %s\n", report.VarianceAnalysis.TotalVariance.StringFixed(2))
	for _, c := range report.VarianceAnalysis.Components {
		cw.printf("  - %s [%s]: %s (%s%%)\n", c.Label, c.Classification, c.Amount.StringFixed(2),
			c.PercentageOfTotalVariance.StringFixed(1))
		cw.printf("    %s\n", c.Explanation)
	}
	cw.printf("\n")

	cw.printf("=== PAYOUT WATERFALL ===\n")
	for _, line := range report.FinancialAnalysis.Lines {
		amount := line.Amount.StringFixed(2)
		if line.Sign == models.SignNegative {
			amount = "-" + amount
		}
		label := line.Label
		if line.Estimated {
			label += " [est.]"
		}
		cw.printf("  %-36s %14s  %7s%%\n", label, amount, line.PercentageOfGross.StringFixed(2))
	}
	cw.printf("\n")

	if rg.config.IncludePerformance && len(report.PerformanceData) > 0 {
		cw.printf("=== PERFORMANCE (%s) ===\n", report.Granularity)
		for i, point := range report.PerformanceData {
			if rg.config.MaxPerformanceRows > 0 && i >= rg.config.MaxPerformanceRows {
				cw.printf("  ... and %d more\n", len(report.PerformanceData)-i)
				break
			}
			cw.printf("  %-20s platform orders %5d  revenue %14s  est. payout %14s\n",
				point.Label, point.TotalOrders, point.TotalRevenue.StringFixed(2), point.EstimatedPayout.StringFixed(2))
		}
		cw.printf("\n")
	}

	if rg.config.IncludeFindings && len(report.Findings) > 0 {
		cw.printf("=== FINDINGS ===\n")
		for _, f := range report.Findings {
			cw.printf("  - %s\n", f.Message)
		}
	}

	return cw.err
}

func (rg *ReportGenerator) printSummary(cw *consoleWriter, summary models.ReconciliationSummary) {
	cw.printf("POS:        %d orders, revenue %s\n", summary.PosOrders, summary.PosRevenue.StringFixed(2))
	cw.printf("Platforms:  %d orders, revenue %s\n", summary.PlatformOrders, summary.PlatformRevenue.StringFixed(2))
	cw.printf("Order variance:   %d\n", summary.OrderVariance)
	cw.printf("  %s\n", summary.OrderVarianceNote)
	cw.printf("Revenue variance: %s (%s%%)\n", summary.RevenueVariance.StringFixed(2), summary.VariancePercentage.StringFixed(2))
	cw.printf("Threshold:        %s%%\n", summary.Threshold.Mul(decimalHundred).StringFixed(2))
	cw.printf("Status:           %s\n", summary.Status)
}

func (rg *ReportGenerator) generateJSONReport(report *models.Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rg.filterReportForOutput(report))
}

func (rg *ReportGenerator) filterReportForOutput(report *models.Report) models.Report {
	filtered := *report
	if !rg.config.IncludeSources {
		filtered.Sources = nil
	}
	if !rg.config.IncludePerformance {
		filtered.PerformanceData = nil
	}
	if !rg.config.IncludeFindings {
		filtered.Findings = nil
	}
	return filtered
}

func (rg *ReportGenerator) generateCSVReport(report *models.Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	var records [][]string
	if rg.config.CSVHeaders {
		records = append(records, []string{"Section", "Label", "Amount", "Percentage", "Detail"})
	}

	s := report.Summary
	records = append(records,
		[]string{SectionSummary, "POS revenue", s.PosRevenue.StringFixed(2), "", strconv.Itoa(s.PosOrders) + " orders"},
		[]string{SectionSummary, "Platform revenue", s.PlatformRevenue.StringFixed(2), "", strconv.Itoa(s.PlatformOrders) + " orders"},
		[]string{SectionSummary, "Revenue variance", s.RevenueVariance.StringFixed(2), s.VariancePercentage.StringFixed(2), string(s.Status)},
		[]string{SectionSummary, "Order variance", strconv.Itoa(s.OrderVariance), "", s.OrderVarianceNote},
	)

	if rg.config.IncludeSources {
		for _, src := range report.Sources {
			records = append(records, []string{
				SectionSource, src.Name, src.Revenue.StringFixed(2), "",
				fmt.Sprintf("%d orders; %d rows read; %d excluded", src.OrderCount, src.RowsRead, src.RowsExcluded),
			})
		}
	}

	for _, p := range report.PlatformBreakdown {
		records = append(records, []string{
			SectionPlatform, p.Name, p.Revenue.StringFixed(2), p.MarketShare.StringFixed(2),
			fmt.Sprintf("%d orders; AOV %s; commission %s%%", p.Orders, p.AverageOrderValue.StringFixed(2), p.EffectiveCommissionRate.StringFixed(2)),
		})
	}

	for _, c := range report.VarianceAnalysis.Components {
		records = append(records, []string{
			SectionVariance, c.Label, c.Amount.StringFixed(2), c.PercentageOfTotalVariance.StringFixed(2),
			string(c.Classification),
		})
	}

	for _, line := range report.FinancialAnalysis.Lines {
		detail := string(line.Sign)
		if line.Estimated {
			detail += "; estimated"
		}
		records = append(records, []string{
			SectionWaterfall, line.Label, line.Amount.StringFixed(2), line.PercentageOfGross.StringFixed(2), detail,
		})
	}

	if rg.config.IncludePerformance {
		for _, point := range report.PerformanceData {
			records = append(records, []string{
				SectionPerformance, point.Label, point.TotalRevenue.StringFixed(2), "",
				fmt.Sprintf("%d platform orders; estimated payout %s", point.TotalOrders, point.EstimatedPayout.StringFixed(2)),
			})
		}
	}

	if rg.config.IncludeFindings {
		for _, f := range report.Findings {
			pct := ""
			if f.Kind != models.FindingUndatedRows {
				pct = f.Rate.Mul(decimalHundred).StringFixed(2)
			}
			records = append(records, []string{SectionFinding, string(f.Kind), "", pct, f.Message})
		}
	}

	if err := csvWriter.WriteAll(records); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "write CSV report", err)
	}
	return nil
}

// consoleWriter keeps the first write error so the console renderer can
// print unconditionally
type consoleWriter struct {
	w   io.Writer
	err error
}

func (cw *consoleWriter) printf(format string, args ...interface{}) {
	if cw.err != nil {
		return
	}
	_, cw.err = fmt.Fprintf(cw.w, format, args...)
}
