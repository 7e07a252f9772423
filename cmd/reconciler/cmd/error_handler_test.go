package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"sales-reconciliation-service/pkg/errors"
)

func TestCLIErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantExit int
		contains []string
	}{
		{
			name:     "nil error",
			err:      nil,
			wantExit: 0,
		},
		{
			name:     "missing source",
			err:      errors.MissingSourceError("platform_b").WithContext("flag", "--platform-b-file"),
			wantExit: 2,
			contains: []string{"Error:", "flag: --platform-b-file", "Input error help"},
		},
		{
			name:     "column detection",
			err:      errors.ColumnDetectionError("platform_a", []string{"Net"}, []string{"Order", "Status"}),
			wantExit: 3,
			contains: []string{"Parse error help", "header_skip_rows"},
		},
		{
			name: "configuration",
			err: errors.ConfigurationError(errors.CodeInvalidConfig, "engine.variance_threshold", 5.0, nil).
				WithSuggestion("fractions are written as 0.05 for 5%"),
			wantExit: 4,
			contains: []string{"Suggestion: fractions are written as 0.05 for 5%", "Configuration error help"},
		},
		{
			name:     "internal",
			err:      errors.InternalError(errors.CodeUnexpectedError, "render report", fmt.Errorf("boom")),
			wantExit: 5,
			contains: []string{"For more help"},
		},
		{
			name:     "wrapped reconciler error",
			err:      fmt.Errorf("report: %w", errors.MissingSourceError("pos")),
			wantExit: 2,
		},
		{
			name:     "file not found",
			err:      &os.PathError{Op: "open", Path: "x.csv", Err: os.ErrNotExist},
			wantExit: 2,
			contains: []string{"File not found"},
		},
		{
			name:     "generic error",
			err:      fmt.Errorf("unknown flag: --bank-files"),
			wantExit: 1,
			contains: []string{"unknown flag: --bank-files", "reconciler --help"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			handler := NewCLIErrorHandler(&out, false)

			if code := handler.HandleError(tt.err); code != tt.wantExit {
				t.Errorf("expected exit code %d, got %d", tt.wantExit, code)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out.String(), s) {
					t.Errorf("output missing %q:\n%s", s, out.String())
				}
			}
		})
	}
}

func TestCLIErrorHandler_Verbose(t *testing.T) {
	err := errors.UnreadableSourceError("pos", "pos.csv", fmt.Errorf("unexpected EOF"))

	var quiet bytes.Buffer
	NewCLIErrorHandler(&quiet, false).HandleError(err)
	if strings.Contains(quiet.String(), "Underlying error") {
		t.Errorf("underlying error should only be shown in verbose mode")
	}

	var loud bytes.Buffer
	NewCLIErrorHandler(&loud, true).HandleError(err)
	if !strings.Contains(loud.String(), "Underlying error: unexpected EOF") {
		t.Errorf("verbose output missing the underlying error:\n%s", loud.String())
	}
}
