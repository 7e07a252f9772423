package cmd

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/parsers"
	"sales-reconciliation-service/internal/reconciler"
	"sales-reconciliation-service/internal/reporter"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// Flags for the report command
var (
	posFile            string
	platformAFile      string
	platformBFile      string
	outputFormat       string
	outputFile         string
	maxPerformanceRows int
	hideSources        bool
	hidePerformance    bool
	hideFindings       bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reconcile POS sales against both delivery platforms",
	Long: `Report reads the POS export and the order exports of Platform A and
Platform B, then prints the reconciliation report.

All three files are required; they may be .csv or .xlsx. The layout of each
export (metadata rows to skip, status string of a completed order, column keys)
comes from the source profile, which defaults to the layout of the sample
exports and can be replaced with --config.

Examples:
  # Console report
  reconciler report --pos-file pos.csv --platform-a-file a.xlsx --platform-b-file b.csv

  # JSON report written to a file, bucketed by week
  reconciler report --pos-file pos.csv --platform-a-file a.csv --platform-b-file b.csv \
    --output-format json --output-file report.json --granularity weekly

  # Stricter variance threshold and a custom source profile
  reconciler report --pos-file pos.csv --platform-a-file a.csv --platform-b-file b.csv \
    --variance-threshold 0.02 --config restaurant.yaml`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Input flags
	reportCmd.Flags().StringVarP(&posFile, "pos-file", "p", "", "path to the POS export (required)")
	reportCmd.Flags().StringVarP(&platformAFile, "platform-a-file", "a", "", "path to the Platform A order export (required)")
	reportCmd.Flags().StringVarP(&platformBFile, "platform-b-file", "b", "", "path to the Platform B payout export (required)")

	// Output flags
	reportCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reportCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reportCmd.Flags().IntVar(&maxPerformanceRows, "max-performance-rows", 31, "performance rows shown in the console report, 0 for all")
	reportCmd.Flags().BoolVar(&hideSources, "no-sources", false, "omit per-source totals")
	reportCmd.Flags().BoolVar(&hidePerformance, "no-performance", false, "omit the performance series")
	reportCmd.Flags().BoolVar(&hideFindings, "no-findings", false, "omit commission findings")

	// Engine flags, bound to the engine.* configuration keys
	defaults := reconciler.DefaultConfig()
	reportCmd.Flags().Float64("variance-threshold", defaults.VarianceThreshold, "variance fraction above which the report fails (0.05 = 5%)")
	reportCmd.Flags().Float64("discount-fraction", defaults.DiscountFraction, "estimated discount as a fraction of gross platform revenue")
	reportCmd.Flags().String("granularity", string(defaults.Granularity), "performance bucket: daily, weekly, monthly")
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	files := []struct {
		source models.SourceID
		path   string
		flag   string
	}{
		{models.SourcePOS, posFile, "--pos-file"},
		{models.SourcePlatformA, platformAFile, "--platform-a-file"},
		{models.SourcePlatformB, platformBFile, "--platform-b-file"},
	}
	for _, f := range files {
		if err := validateFileExists(f.source, f.path, f.flag); err != nil {
			return err
		}
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", outputFormat, nil).
			WithSuggestion("use console, json or csv")
	}
	if maxPerformanceRows < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max-performance-rows", maxPerformanceRows, nil)
	}

	return nil
}

func validateFileExists(source models.SourceID, filePath, flag string) error {
	if filePath == "" {
		return errors.MissingSourceError(source.String()).
			WithContext("flag", flag)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return errors.UnreadableSourceError(source.String(), filePath, err)
	}
	if info.IsDir() {
		return errors.UnreadableSourceError(source.String(), filePath, nil).
			WithSuggestion("expected a file, got a directory")
	}
	if !parsers.IsSupportedFile(filePath) {
		return errors.UnreadableSourceError(source.String(), filePath, nil).
			WithSuggestion("only .csv and .xlsx exports are supported")
	}
	return nil
}

func reportConfig() *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(outputFormat)
	config.MaxPerformanceRows = maxPerformanceRows
	config.IncludeSources = !hideSources
	config.IncludePerformance = !hidePerformance
	config.IncludeFindings = !hideFindings
	return config
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger().WithComponent("cli")
	log.WithFields(logger.Fields{
		"pos_file":        posFile,
		"platform_a_file": platformAFile,
		"platform_b_file": platformBFile,
		"output_format":   outputFormat,
		"output_file":     outputFile,
	}).Debug("Starting reconciliation")

	generator, err := reconciler.NewGenerator(appConfig.Engine, reconciler.WithLogger(log))
	if err != nil {
		return err
	}

	report, err := generator.Generate(cmd.Context(), map[models.SourceID]parsers.SourceInput{
		models.SourcePOS:       parsers.FileInput(posFile),
		models.SourcePlatformA: parsers.FileInput(platformAFile),
		models.SourcePlatformB: parsers.FileInput(platformBFile),
	})
	if err != nil {
		return err
	}

	if err := writeReport(cmd, report, reportConfig(), log); err != nil {
		return err
	}

	if verbose {
		summary := report.Summary
		verdict := "within"
		if !summary.IsPassing() {
			verdict = "outside"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nReconciliation completed: %s, variance %s the %s%% threshold.\n",
			summary.Status, verdict, summary.Threshold.Mul(decimal.NewFromInt(100)).StringFixed(2))
		fmt.Fprintf(cmd.ErrOrStderr(), "POS revenue %s over %d orders, platforms %s over %d orders.\n",
			summary.PosRevenue.StringFixed(2), summary.PosOrders,
			summary.PlatformRevenue.StringFixed(2), summary.PlatformOrders)
		fmt.Fprintf(cmd.ErrOrStderr(), "Revenue variance %s (%s%%).\n",
			summary.RevenueVariance.StringFixed(2), summary.VariancePercentage.StringFixed(2))
		if len(report.Findings) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Findings: %d.\n", len(report.Findings))
		}
	}

	return nil
}

// writeReport renders report to --output-file, creating missing directories,
// or to stdout when unset
func writeReport(cmd *cobra.Command, report *models.Report, config *reporter.ReportConfig, log logger.Logger) error {
	srg, err := reporter.NewSafeReportGenerator(config, log)
	if err != nil {
		return err
	}

	return logger.TimedOperation("write_report", log, func() error {
		if outputFile == "" {
			return srg.WriteReport(report, cmd.OutOrStdout())
		}
		if err := srg.WriteToFile(report, outputFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", outputFile)
		return nil
	})
}
