// Package config loads the reconciler configuration from defaults, an
// optional YAML/JSON/TOML file, RECONCILER_* environment variables and
// command flags, in increasing order of precedence.
//
// Example file:
//
//	engine:
//	  variance_threshold: 0.05
//	  discount_estimate_fraction: 0.12
//	  granularity: weekly
//	  sources:
//	    pos:
//	      header_skip_rows: 6
//	server:
//	  addr: ":9090"
//	log:
//	  level: debug
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/reconciler"
	"sales-reconciliation-service/internal/server"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// EnvPrefix is the prefix of environment overrides, e.g. RECONCILER_SERVER_ADDR
const EnvPrefix = "RECONCILER"

// Config is the complete service configuration
type Config struct {
	Engine reconciler.Config `json:"engine" mapstructure:"engine"`
	Server server.Config     `json:"server" mapstructure:"server"`
	Log    logger.Config     `json:"log" mapstructure:"log"`
}

// Default returns the built-in configuration with the sample source profile
func Default() *Config {
	return &Config{
		Engine: reconciler.DefaultConfig(),
		Server: server.DefaultConfig(),
		Log:    *logger.DefaultConfig(),
	}
}

// NewViper returns a viper instance with defaults registered and
// environment overrides enabled
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every scalar setting so that environment variables
// can override it
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("engine.variance_threshold", d.Engine.VarianceThreshold)
	v.SetDefault("engine.discount_estimate_fraction", d.Engine.DiscountFraction)
	v.SetDefault("engine.granularity", string(d.Engine.Granularity))
	v.SetDefault("engine.commission_benchmark.min", d.Engine.CommissionBenchmark.Min)
	v.SetDefault("engine.commission_benchmark.max", d.Engine.CommissionBenchmark.Max)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_window", d.Server.RateWindow)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.level", string(d.Log.Level))
	v.SetDefault("log.format", string(d.Log.Format))
	v.SetDefault("log.output", string(d.Log.Output))
	v.SetDefault("log.file", d.Log.File)
}

// ReadFile reads a configuration file into v
func ReadFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.ConfigurationError(errors.CodeMissingConfig, "config", path, err).
			WithSuggestion("check the --config path")
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "config", path, err).
			WithSuggestion("the configuration file must be valid YAML, JSON or TOML")
	}
	return nil
}

// Load decodes the settings held by v over the defaults and validates them.
// Source sections in a file only need the fields that differ from the
// sample profile.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", v.ConfigFileUsed(), err)
	}
	cfg.Engine.Granularity = normalizeGranularity(cfg.Engine.Granularity)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates every section
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", fmt.Sprintf("%s/%s/%s", c.Log.Level, c.Log.Format, c.Log.Output), err)
	}
	return nil
}

func normalizeGranularity(g models.Granularity) models.Granularity {
	return models.Granularity(strings.ToLower(strings.TrimSpace(string(g))))
}
