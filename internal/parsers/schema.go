package parsers

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
)

// BindSchema resolves the configured keys against the normalized header and
// returns the typed rows. A configured key that the header does not contain,
// or a header with fewer than MinColumns populated cells, is a
// ColumnDetectionError: a silent zero total is never produced.
func BindSchema(cfg SourceConfig, table models.NormalizedTable) ([]models.SourceRow, error) {
	source := cfg.ID.String()

	var missing []string
	for _, key := range cfg.RequiredKeys() {
		if !table.HasKey(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, errors.ColumnDetectionError(source, missing, table.Keys).
			WithContext("header_skip_rows", cfg.HeaderSkipRows)
	}
	if table.HeaderCells < cfg.MinColumns {
		return nil, errors.ColumnDetectionError(source, nil, table.Keys).
			WithContext("header_skip_rows", cfg.HeaderSkipRows).
			WithContext("min_columns", cfg.MinColumns).
			WithContext("header_cells", table.HeaderCells)
	}

	rows := make([]models.SourceRow, 0, len(table.Records))
	for _, record := range table.Records {
		rows = append(rows, models.SourceRow{
			Line:       record.Line,
			OrderID:    lookup(record, cfg.OrderIDKey),
			Status:     lookup(record, cfg.StatusKey),
			Date:       bindDate(lookup(record, cfg.DateKey)),
			Revenue:    lookup(record, cfg.RevenueKey),
			Commission: lookup(record, cfg.CommissionKey),
			AdSpend:    lookup(record, cfg.AdSpendKey),
		})
	}
	return rows, nil
}

func lookup(record models.CanonicalRecord, key string) string {
	if key == "" {
		return ""
	}
	return record.Get(key)
}

// maxExcelSerial is the serial of 9999-12-31, the last date a workbook holds
const maxExcelSerial = 2958465

// bindDate rewrites a spreadsheet date serial, as read from a native XLSX
// date cell, into a timestamp the period bucketing understands. Any other
// cell text is returned unchanged.
func bindDate(cell string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || serial < 1 || serial > maxExcelSerial {
		return cell
	}
	date, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return date.Format("2006-01-02 15:04:05")
}
