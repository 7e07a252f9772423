package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
)

// Format is the file format of written exports
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// IsValid checks if the format is supported
func (f Format) IsValid() bool {
	return f == FormatCSV || f == FormatXLSX
}

var fileStems = map[models.SourceID]string{
	models.SourcePOS:       "pos_sales",
	models.SourcePlatformA: "platform_a_orders",
	models.SourcePlatformB: "platform_b_payout",
}

// WriteCSV writes rows as comma separated values
func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return pkgerrors.Wrap(err, "failed to write CSV rows")
	}
	return nil
}

// WriteXLSX writes rows into a single-sheet workbook
func WriteXLSX(w io.Writer, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return pkgerrors.Wrap(err, "failed to name sheet")
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return pkgerrors.Wrap(err, "failed to address row")
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return pkgerrors.Wrapf(err, "failed to write row %d", i+1)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return pkgerrors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// WriteDir writes the three exports of a dataset into dir and returns the
// path of each file
func WriteDir(dir string, format Format, ds Dataset) (map[models.SourceID]string, error) {
	if !format.IsValid() {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "format", format, nil).
			WithSuggestion("use csv or xlsx")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create %s", dir)
	}

	paths := make(map[models.SourceID]string, len(ds.Rows))
	for _, id := range models.AllSources() {
		path := filepath.Join(dir, fmt.Sprintf("%s.%s", fileStems[id], format))
		if err := writeFile(path, format, ds.Rows[id]); err != nil {
			return nil, err
		}
		paths[id] = path
	}
	return paths, nil
}

func writeFile(path string, format Format, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	if format == FormatXLSX {
		return WriteXLSX(file, "Orders", rows)
	}
	return WriteCSV(file, rows)
}
