// Package parsers turns POS and delivery-platform exports into typed rows.
//
// Real-world exports carry report titles, date ranges and branding above the
// true header row, and derive header text from spreadsheet formulas. The
// package handles them in four steps:
//
//   - Decode: CSV or XLSX bytes into a RawTable of cell text
//   - NormalizeTable: skip the metadata rows and derive canonical header keys
//   - BindSchema: resolve the configured keys into typed SourceRows
//   - CleanNumber / CoerceNumber: lenient numeric coercion of amount cells
//
// LoadSources decodes the three exports of one reconciliation concurrently.
//
// Example usage:
//
//	profile := parsers.SampleProfile()
//	tables, err := parsers.LoadSources(ctx, profile, map[models.SourceID]parsers.SourceInput{
//		models.SourcePOS:       parsers.FileInput("pos.csv"),
//		models.SourcePlatformA: parsers.FileInput("platform_a.xlsx"),
//		models.SourcePlatformB: parsers.FileInput("platform_b.csv"),
//	})
package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// Supported export formats
const (
	FormatCSV  = ".csv"
	FormatXLSX = ".xlsx"
)

// SourceInput is one uploaded or on-disk export
type SourceInput struct {
	FileName string
	Open     func() (io.ReadCloser, error)
}

// FileInput reads the export from a path on disk
func FileInput(path string) SourceInput {
	return SourceInput{
		FileName: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// ReaderInput reads the export from r; name supplies the file extension
func ReaderInput(name string, r io.Reader) SourceInput {
	return SourceInput{
		FileName: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

// BytesInput reads the export from an in-memory buffer
func BytesInput(name string, data []byte) SourceInput {
	return SourceInput{
		FileName: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// IsSupportedFile reports whether the file name has a .csv or .xlsx extension
func IsSupportedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == FormatCSV || ext == FormatXLSX
}

// Decode reads an export into a RawTable. The format is chosen by file
// extension. Every failure is an UnreadableSourceError naming the file.
func Decode(cfg SourceConfig, input SourceInput) (models.RawTable, error) {
	source := cfg.ID.String()
	log := logger.GetGlobalLogger().WithComponent("decoder").WithFields(logger.Fields{
		"source": source,
		"file":   input.FileName,
	})

	if input.Open == nil {
		return models.RawTable{}, errors.MissingSourceError(source)
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	if ext != FormatCSV && ext != FormatXLSX {
		return models.RawTable{}, errors.UnreadableSourceError(source, input.FileName,
			fmt.Errorf("unsupported file extension %q, expected .csv or .xlsx", ext))
	}

	rc, err := input.Open()
	if err != nil {
		log.WithError(err).Error("Failed to open export")
		return models.RawTable{}, errors.UnreadableSourceError(source, input.FileName, err)
	}
	defer rc.Close()

	var rows [][]string
	if ext == FormatXLSX {
		rows, err = decodeXLSX(rc, cfg.Sheet)
	} else {
		rows, err = decodeCSV(rc, cfg.Comma())
	}
	if err != nil {
		log.WithError(err).Error("Failed to decode export")
		return models.RawTable{}, errors.UnreadableSourceError(source, input.FileName, err)
	}

	log.WithField("rows", len(rows)).Debug("Decoded export")
	return models.RawTable{
		Source:   cfg.ID,
		FileName: input.FileName,
		Rows:     rows,
	}, nil
}

// decodeCSV reads every record, stripping a UTF-8 or UTF-16 byte order mark.
// Blank lines are skipped by encoding/csv.
func decodeCSV(r io.Reader, comma rune) ([][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// decodeXLSX reads the configured sheet, or the first one, as stored cell
// values rather than display text, so number formats never round amounts and
// date cells arrive as serial numbers. Rows without any cell are dropped to
// match CSV blank lines.
func decodeXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	name := sheets[0]
	if sheet != "" {
		found := false
		for _, s := range sheets {
			if strings.EqualFold(s, sheet) {
				name = s
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet %q not found, available sheets: %s", sheet, strings.Join(sheets, ", "))
		}
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(raw))
	for _, row := range raw {
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
