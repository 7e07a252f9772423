package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with logging and file output
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, err
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// WriteReport renders the report to writer
func (srg *SafeReportGenerator) WriteReport(report *models.Report, writer io.Writer) error {
	if writer == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "render report", fmt.Errorf("writer cannot be nil"))
	}

	log := srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	})
	if report != nil {
		log = log.WithField("report_id", report.ID)
	}

	if err := srg.GenerateReport(report, writer); err != nil {
		log.WithError(err).Error("Report rendering failed")
		return srg.wrapGenerationError(err)
	}

	log.Debug("Report rendered")
	return nil
}

// WriteToFile renders the report into path. The report is written to a
// temporary file in the same directory and renamed into place, so a failed
// render never leaves a truncated report behind.
func (srg *SafeReportGenerator) WriteToFile(report *models.Report, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return srg.wrapGenerationError(err).WithContext("output_file", path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return srg.wrapGenerationError(err).WithContext("output_file", path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := srg.WriteReport(report, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return srg.wrapGenerationError(err).WithContext("output_file", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return srg.wrapGenerationError(err).WithContext("output_file", path)
	}

	srg.logger.WithField("output_file", path).Info("Report written")
	return nil
}

func (srg *SafeReportGenerator) wrapGenerationError(err error) *errors.ReconcilerError {
	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return errors.InternalError(errors.CodeUnexpectedError, "report output", err).
		WithSuggestion("check that the output destination is writable")
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}
