package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/sample"
	"sales-reconciliation-service/pkg/errors"
)

// resetFlags restores flag defaults; cobra keeps flag state between executions
func resetFlags(flags map[*cobra.Command][]string) {
	for c, names := range flags {
		for _, name := range names {
			flag := c.Flags().Lookup(name)
			if flag == nil {
				flag = c.PersistentFlags().Lookup(name)
			}
			if flag == nil {
				continue
			}
			_ = flag.Value.Set(flag.DefValue)
			flag.Changed = false
		}
	}
}

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(map[*cobra.Command][]string{
		rootCmd:   {"config", "verbose", "log-level", "log-format"},
		reportCmd: {"pos-file", "platform-a-file", "platform-b-file", "output-format", "output-file", "max-performance-rows", "no-sources", "no-performance", "no-findings", "variance-threshold", "discount-fraction", "granularity"},
		serveCmd:  {"addr"},
		demoCmd:   {"write-dir", "format", "output-format", "seed", "start", "days", "orders"},
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeSampleFiles(t *testing.T, format sample.Format) map[models.SourceID]string {
	t.Helper()
	paths, err := sample.WriteDir(t.TempDir(), format, sample.Generate(sample.DefaultOptions()))
	if err != nil {
		t.Fatalf("failed to write sample exports: %v", err)
	}
	return paths
}

func fileArgs(paths map[models.SourceID]string) []string {
	return []string{
		"report",
		"--pos-file", paths[models.SourcePOS],
		"--platform-a-file", paths[models.SourcePlatformA],
		"--platform-b-file", paths[models.SourcePlatformB],
	}
}

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	pdfFile := filepath.Join(tmpDir, "export.pdf")
	if err := os.WriteFile(pdfFile, []byte("%PDF"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name     string
		filePath string
		wantCode errors.ErrorCode
	}{
		{
			name:     "valid file",
			filePath: validFile,
		},
		{
			name:     "empty path",
			filePath: "",
			wantCode: errors.CodeMissingSource,
		},
		{
			name:     "non-existent file",
			filePath: "/non/existent/file.csv",
			wantCode: errors.CodeUnreadableSource,
		},
		{
			name:     "directory instead of file",
			filePath: tmpDir,
			wantCode: errors.CodeUnreadableSource,
		},
		{
			name:     "unsupported extension",
			filePath: pdfFile,
			wantCode: errors.CodeUnreadableSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(models.SourcePOS, tt.filePath, "--pos-file")

			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestReportCommand_Console(t *testing.T) {
	paths := writeSampleFiles(t, sample.FormatCSV)

	stdout, _, err := executeCommand(t, fileArgs(paths)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range []string{
		"SALES RECONCILIATION REPORT",
		"Period:",
		"=== SUMMARY ===",
		"Status:           FAIL",
		"=== PAYOUT WATERFALL ===",
		"=== PERFORMANCE (daily) ===",
	} {
		if !strings.Contains(stdout, s) {
			t.Errorf("report output missing %q", s)
		}
	}
	if strings.Contains(stdout, "DEMO DATA") {
		t.Errorf("a report from files must not be marked as demo data")
	}
}

func TestReportCommand_JSONFile(t *testing.T) {
	paths := writeSampleFiles(t, sample.FormatXLSX)
	outputPath := filepath.Join(t.TempDir(), "reports", "march.json")

	args := append(fileArgs(paths), "--output-format", "json", "--output-file", outputPath, "--granularity", "weekly")
	stdout, stderr, err := executeCommand(t, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "" {
		t.Errorf("nothing should be printed to stdout when writing a file, got %q", stdout)
	}
	if !strings.Contains(stderr, "Report written to") {
		t.Errorf("expected a completion notice, got %q", stderr)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	expected := sample.Generate(sample.DefaultOptions()).Expected
	if report.Granularity != models.GranularityWeekly {
		t.Errorf("expected weekly granularity, got %s", report.Granularity)
	}
	if !report.Summary.PosRevenue.Equal(expected[models.SourcePOS].Revenue) {
		t.Errorf("expected POS revenue %s, got %s", expected[models.SourcePOS].Revenue, report.Summary.PosRevenue)
	}
	if report.Period != "2024-03-01 to 2024-03-07" {
		t.Errorf("unexpected period %q", report.Period)
	}
}

func TestReportCommand_ConfigPrecedence(t *testing.T) {
	paths := writeSampleFiles(t, sample.FormatCSV)
	configPath := filepath.Join(t.TempDir(), "reconciler.yaml")
	if err := os.WriteFile(configPath, []byte("engine:\n  variance_threshold: 0.99\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	status := func(extra ...string) models.ReconciliationStatus {
		t.Helper()
		args := append(fileArgs(paths), "--config", configPath, "--output-format", "json")
		stdout, _, err := executeCommand(t, append(args, extra...)...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var report models.Report
		if err := json.Unmarshal([]byte(stdout), &report); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		return report.Summary.Status
	}

	if got := status(); got != models.StatusPass {
		t.Errorf("config threshold 0.99 should pass, got %s", got)
	}
	if got := status("--variance-threshold", "0.01"); got != models.StatusFail {
		t.Errorf("flag threshold 0.01 should override the config file, got %s", got)
	}
}

func TestReportCommand_VerboseSummary(t *testing.T) {
	paths := writeSampleFiles(t, sample.FormatCSV)

	tests := []struct {
		threshold string
		want      string
	}{
		{"0.99", "Reconciliation completed: PASS, variance within the 99.00% threshold."},
		{"0.01", "Reconciliation completed: FAIL, variance outside the 1.00% threshold."},
	}

	for _, tt := range tests {
		t.Run(tt.threshold, func(t *testing.T) {
			args := append(fileArgs(paths), "--verbose", "--variance-threshold", tt.threshold)
			_, stderr, err := executeCommand(t, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("verbose summary missing %q:\n%s", tt.want, stderr)
			}
		})
	}
}

func TestReportCommand_Errors(t *testing.T) {
	paths := writeSampleFiles(t, sample.FormatCSV)

	wrongSkip := filepath.Join(t.TempDir(), "wrong.yaml")
	if err := os.WriteFile(wrongSkip, []byte("engine:\n  sources:\n    platform_b:\n      header_skip_rows: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode errors.ErrorCode
	}{
		{
			name:     "missing platform B",
			args:     []string{"report", "--pos-file", paths[models.SourcePOS], "--platform-a-file", paths[models.SourcePlatformA]},
			wantExit: 2,
			wantCode: errors.CodeMissingSource,
		},
		{
			name:     "invalid output format",
			args:     append(fileArgs(paths), "--output-format", "pdf"),
			wantExit: 4,
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:     "invalid granularity",
			args:     append(fileArgs(paths), "--granularity", "hourly"),
			wantExit: 4,
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:     "threshold out of range",
			args:     append(fileArgs(paths), "--variance-threshold", "5"),
			wantExit: 4,
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:     "missing config file",
			args:     append(fileArgs(paths), "--config", filepath.Join(t.TempDir(), "absent.yaml")),
			wantExit: 4,
			wantCode: errors.CodeMissingConfig,
		},
		{
			name:     "wrong skip rows",
			args:     append(fileArgs(paths), "--config", wrongSkip),
			wantExit: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			if err == nil {
				t.Fatalf("expected error but got none")
			}
			if tt.wantCode != "" && !errors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}

			var out bytes.Buffer
			if code := NewCLIErrorHandler(&out, false).HandleError(err); code != tt.wantExit {
				t.Errorf("expected exit code %d, got %d (%v)", tt.wantExit, code, err)
			}
		})
	}
}

func TestDemoCommand(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "demo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, s := range []string{"DEMO DATA", "Revenue variance: 18000.00 (40.00%)", "Status:           FAIL"} {
			if !strings.Contains(stdout, s) {
				t.Errorf("demo output missing %q", s)
			}
		}
	})

	t.Run("json report", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "demo", "--output-format", "json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var report models.Report
		if err := json.Unmarshal([]byte(stdout), &report); err != nil {
			t.Fatalf("demo report is not valid JSON: %v", err)
		}
		if !report.Demo {
			t.Errorf("demo report must carry the demo flag")
		}
	})

	t.Run("write dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports")
		stdout, _, err := executeCommand(t, "demo", "--write-dir", dir, "--format", "xlsx", "--days", "3", "--orders", "30")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read export dir: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 exports, found %d", len(entries))
		}
		for _, entry := range entries {
			if filepath.Ext(entry.Name()) != ".xlsx" {
				t.Errorf("unexpected export %s", entry.Name())
			}
			if !strings.Contains(stdout, entry.Name()) {
				t.Errorf("output should list %s", entry.Name())
			}
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		_, _, err := executeCommand(t, "demo", "--write-dir", t.TempDir(), "--format", "ods")
		if !errors.HasCode(err, errors.CodeInvalidConfig) {
			t.Errorf("expected invalid_config, got %v", err)
		}
	})

	t.Run("invalid start", func(t *testing.T) {
		_, _, err := executeCommand(t, "demo", "--write-dir", t.TempDir(), "--start", "March")
		if !errors.HasCode(err, errors.CodeInvalidConfig) {
			t.Errorf("expected invalid_config, got %v", err)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "reconciler dev") {
		t.Errorf("unexpected version output %q", stdout)
	}
}

func TestReportCommandHelp(t *testing.T) {
	for _, name := range []string{"pos-file", "platform-a-file", "platform-b-file", "output-format", "output-file", "variance-threshold", "discount-fraction", "granularity"} {
		if reportCmd.Flags().Lookup(name) == nil {
			t.Errorf("report command is missing --%s", name)
		}
	}
	if serveCmd.Flags().Lookup("addr") == nil {
		t.Errorf("serve command is missing --addr")
	}
}
