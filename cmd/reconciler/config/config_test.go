package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	if cfg.Engine.VarianceThreshold != 0.05 {
		t.Errorf("expected variance threshold 0.05, got %v", cfg.Engine.VarianceThreshold)
	}
	if cfg.Engine.DiscountFraction != 0.12 {
		t.Errorf("expected discount fraction 0.12, got %v", cfg.Engine.DiscountFraction)
	}
	if cfg.Engine.Granularity != models.GranularityDaily {
		t.Errorf("expected daily granularity, got %s", cfg.Engine.Granularity)
	}
	if cfg.Engine.Profile.POS.HeaderSkipRows != 5 {
		t.Errorf("expected sample POS skip of 5, got %d", cfg.Engine.Profile.POS.HeaderSkipRows)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Log.Level != logger.InfoLevel {
		t.Errorf("expected info log level, got %s", cfg.Log.Level)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Default()
	if cfg.Engine.VarianceThreshold != want.Engine.VarianceThreshold {
		t.Errorf("expected threshold %v, got %v", want.Engine.VarianceThreshold, cfg.Engine.VarianceThreshold)
	}
	if cfg.Engine.CommissionBenchmark != want.Engine.CommissionBenchmark {
		t.Errorf("expected benchmark %+v, got %+v", want.Engine.CommissionBenchmark, cfg.Engine.CommissionBenchmark)
	}
	if cfg.Engine.Profile != want.Engine.Profile {
		t.Errorf("expected the sample profile, got %+v", cfg.Engine.Profile)
	}
	if cfg.Server != want.Server {
		t.Errorf("expected server defaults %+v, got %+v", want.Server, cfg.Server)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfigFile(t, "reconciler.yaml", `
engine:
  variance_threshold: 0.1
  granularity: Weekly
  commission_benchmark:
    max: 0.3
  sources:
    pos:
      header_skip_rows: 6
    platform_b:
      status_match: completed
server:
  addr: ":9090"
  rate_window: 30s
log:
  level: debug
  format: json
`)

	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		t.Fatalf("unexpected error reading file: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Engine.VarianceThreshold != 0.1 {
		t.Errorf("expected threshold 0.1, got %v", cfg.Engine.VarianceThreshold)
	}
	if cfg.Engine.Granularity != models.GranularityWeekly {
		t.Errorf("expected weekly granularity, got %s", cfg.Engine.Granularity)
	}
	if cfg.Engine.CommissionBenchmark.Min != 0.18 || cfg.Engine.CommissionBenchmark.Max != 0.3 {
		t.Errorf("expected benchmark 0.18-0.3, got %+v", cfg.Engine.CommissionBenchmark)
	}

	pos := cfg.Engine.Profile.POS
	if pos.HeaderSkipRows != 6 {
		t.Errorf("expected POS skip 6, got %d", pos.HeaderSkipRows)
	}
	if pos.Name != "POS" || pos.RevenueKey != "Total" {
		t.Errorf("unset POS fields should keep sample values, got %+v", pos)
	}
	if cfg.Engine.Profile.PlatformB.StatusMatch != "completed" {
		t.Errorf("expected platform B status completed, got %s", cfg.Engine.Profile.PlatformB.StatusMatch)
	}
	if cfg.Engine.Profile.PlatformA.HeaderSkipRows != 4 {
		t.Errorf("platform A should keep the sample skip, got %d", cfg.Engine.Profile.PlatformA.HeaderSkipRows)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Server.RateWindow != 30*time.Second {
		t.Errorf("expected rate window 30s, got %s", cfg.Server.RateWindow)
	}
	if cfg.Log.Level != logger.DebugLevel || cfg.Log.Format != logger.JSONFormat {
		t.Errorf("expected debug/json logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("RECONCILER_ENGINE_VARIANCE_THRESHOLD", "0.2")
	t.Setenv("RECONCILER_ENGINE_GRANULARITY", "monthly")
	t.Setenv("RECONCILER_SERVER_ADDR", ":7070")
	t.Setenv("RECONCILER_LOG_LEVEL", "warn")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Engine.VarianceThreshold != 0.2 {
		t.Errorf("expected threshold 0.2, got %v", cfg.Engine.VarianceThreshold)
	}
	if cfg.Engine.Granularity != models.GranularityMonthly {
		t.Errorf("expected monthly granularity, got %s", cfg.Engine.Granularity)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected addr :7070, got %s", cfg.Server.Addr)
	}
	if cfg.Log.Level != logger.WarnLevel {
		t.Errorf("expected warn level, got %s", cfg.Log.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"threshold above one", "engine.variance_threshold", 1.5},
		{"negative discount", "engine.discount_estimate_fraction", -0.1},
		{"unknown granularity", "engine.granularity", "hourly"},
		{"inverted benchmark", "engine.commission_benchmark.min", 0.4},
		{"negative skip rows", "engine.sources.pos.header_skip_rows", -1},
		{"empty status match", "engine.sources.platform_a.status_match", ""},
		{"zero rate limit", "server.rate_limit", 0},
		{"unknown log level", "log.level", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViper()
			v.Set(tt.key, tt.val)

			_, err := Load(v)
			if err == nil {
				t.Fatalf("expected error for %s=%v", tt.key, tt.val)
			}
			if !errors.HasCode(err, errors.CodeInvalidConfig) {
				t.Errorf("expected invalid_config, got %v", err)
			}
			if reconcilerErr, ok := errors.AsReconcilerError(err); !ok || reconcilerErr.GetExitCode() != 4 {
				t.Errorf("expected configuration exit code 4, got %v", err)
			}
		})
	}
}

func TestReadFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := ReadFile(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
		if !errors.HasCode(err, errors.CodeMissingConfig) {
			t.Errorf("expected missing_config, got %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeConfigFile(t, "broken.yaml", "engine: [unclosed\n")
		err := ReadFile(NewViper(), path)
		if !errors.HasCode(err, errors.CodeInvalidConfig) {
			t.Errorf("expected invalid_config, got %v", err)
		}
	})
}
