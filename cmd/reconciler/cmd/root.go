package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sales-reconciliation-service/cmd/reconciler/config"
	"sales-reconciliation-service/pkg/logger"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// appConfig is loaded before every command runs
	appConfig *config.Config
)

// flagKeys maps command flags onto configuration keys. Flags win over the
// config file and environment when set explicitly.
var flagKeys = map[string]string{
	"variance-threshold": "engine.variance_threshold",
	"discount-fraction":  "engine.discount_estimate_fraction",
	"granularity":        "engine.granularity",
	"addr":               "server.addr",
	"log-level":          "log.level",
	"log-format":         "log.format",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Restaurant sales reconciliation tool",
	Long: `Reconciler compares a restaurant's point-of-sale export with the order
exports of its two delivery platforms. It reports the revenue variance, explains
it, estimates the net payout and flags commission rates outside the expected range.

Examples:
  reconciler report --pos-file pos.csv --platform-a-file a.xlsx --platform-b-file b.csv
  reconciler report --pos-file pos.csv --platform-a-file a.csv --platform-b-file b.csv --output-format json
  reconciler serve --addr :8080
  reconciler demo --write-dir ./sample
  reconciler version`,
	Version:           getVersionString(),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Verbose reports whether --verbose was given
func Verbose() bool {
	return verbose
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json")
}

// initConfig merges defaults, the config file, RECONCILER_* environment
// variables and the flags of the running command, then installs the logger.
func initConfig(cmd *cobra.Command, args []string) error {
	v := config.NewViper()
	if cfgFile != "" {
		if err := config.ReadFile(v, cfgFile); err != nil {
			return err
		}
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	if verbose {
		debug := logger.DebugConfig()
		v.Set("log.level", string(debug.Level))
		v.Set("log.caller_info", debug.CallerInfo)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)

	if cfgFile != "" {
		log.WithField("file", v.ConfigFileUsed()).Debug("Using config file")
	}

	appConfig = cfg
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
