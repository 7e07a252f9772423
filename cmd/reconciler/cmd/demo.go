package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/reconciler"
	"sales-reconciliation-service/internal/reporter"
	"sales-reconciliation-service/internal/sample"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// Flags for the demo command
var (
	demoWriteDir     string
	demoFileFormat   string
	demoOutputFormat string
	demoSeed         int64
	demoStart        string
	demoDays         int
	demoOrders       int
)

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Show a demo report or write sample exports",
	Long: `Demo has two modes.

Without --write-dir it prints a report built from fixed demo aggregates. The
report is marked as demo data and reads no files.

With --write-dir it writes a deterministic set of POS, Platform A and Platform B
exports in the layout of the default source profile. Feed them to 'reconciler
report' to see a full reconciliation.

Examples:
  reconciler demo
  reconciler demo --output-format json
  reconciler demo --write-dir ./sample --format xlsx --days 30 --orders 600
  reconciler report --pos-file sample/pos_sales.csv \
    --platform-a-file sample/platform_a_orders.csv --platform-b-file sample/platform_b_payout.csv`,

	PreRunE: validateDemoFlags,
	RunE:    runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	defaults := sample.DefaultOptions()
	demoCmd.Flags().StringVar(&demoWriteDir, "write-dir", "", "write sample exports into this directory instead of printing a report")
	demoCmd.Flags().StringVar(&demoFileFormat, "format", string(sample.FormatCSV), "sample export format: csv, xlsx")
	demoCmd.Flags().StringVarP(&demoOutputFormat, "output-format", "f", "console", "demo report format: console, json, csv")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", defaults.Seed, "random seed of the sample exports")
	demoCmd.Flags().StringVar(&demoStart, "start", defaults.Start.Format("2006-01-02"), "first trading day of the sample exports")
	demoCmd.Flags().IntVar(&demoDays, "days", defaults.Days, "trading days in the sample exports")
	demoCmd.Flags().IntVar(&demoOrders, "orders", defaults.Orders, "orders in the sample exports")
}

func validateDemoFlags(cmd *cobra.Command, args []string) error {
	if !sample.Format(demoFileFormat).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "format", demoFileFormat, nil).
			WithSuggestion("use csv or xlsx")
	}
	if !reporter.OutputFormat(demoOutputFormat).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", demoOutputFormat, nil).
			WithSuggestion("use console, json or csv")
	}
	if _, err := time.Parse("2006-01-02", demoStart); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "start", demoStart, err).
			WithSuggestion("use YYYY-MM-DD")
	}
	if demoDays <= 0 || demoOrders <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "days/orders", fmt.Sprintf("%d/%d", demoDays, demoOrders), nil).
			WithSuggestion("days and orders must be positive")
	}
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger().WithComponent("cli")

	if demoWriteDir != "" {
		return writeSampleExports(cmd, log)
	}

	generator, err := reconciler.NewGenerator(appConfig.Engine, reconciler.WithLogger(log))
	if err != nil {
		return err
	}
	report := generator.GenerateFromAggregates(sample.StructuredAggregates())

	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(demoOutputFormat)
	srg, err := reporter.NewSafeReportGenerator(config, log)
	if err != nil {
		return err
	}
	return srg.WriteReport(report, cmd.OutOrStdout())
}

func writeSampleExports(cmd *cobra.Command, log logger.Logger) error {
	start, _ := time.Parse("2006-01-02", demoStart)
	opts := sample.Options{
		Seed:   demoSeed,
		Start:  start,
		Days:   demoDays,
		Orders: demoOrders,
	}

	paths, err := sample.WriteDir(demoWriteDir, sample.Format(demoFileFormat), sample.Generate(opts))
	if err != nil {
		return errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "failed to write sample exports").
			WithContext("dir", demoWriteDir)
	}

	log.WithFields(logger.Fields{
		"dir":    demoWriteDir,
		"format": demoFileFormat,
		"seed":   demoSeed,
	}).Debug("Sample exports written")

	for _, id := range models.AllSources() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", id, paths[id])
	}
	return nil
}
