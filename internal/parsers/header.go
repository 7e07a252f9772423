package parsers

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
)

// HeaderKey derives the canonical key of a header cell: the first
// whitespace-delimited token of the trimmed, NFKC-normalized text.
// An empty cell yields "Col<index>".
func HeaderKey(cell string, index int) string {
	fields := strings.Fields(norm.NFKC.String(cell))
	if len(fields) == 0 {
		return fmt.Sprintf("Col%d", index)
	}
	return fields[0]
}

// HeaderKeys derives the keys of a whole header row. A key that repeats an
// earlier one gets a positional suffix (Order, Order_2) so no column is
// overwritten.
func HeaderKeys(header []string) []string {
	keys := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, cell := range header {
		base := HeaderKey(cell, i)
		key := base
		for n := 2; used[key]; n++ {
			key = fmt.Sprintf("%s_%d", base, n)
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}

// NormalizeTable strips headerSkipRows leading metadata rows, derives keys
// from the header row that follows and maps every data row onto them.
// Short rows yield empty values, cells beyond the header are ignored and
// rows that are entirely empty are dropped.
func NormalizeTable(table models.RawTable, headerSkipRows int) (models.NormalizedTable, error) {
	if headerSkipRows < 0 {
		headerSkipRows = 0
	}

	source := table.Source.String()
	if len(table.Rows) < headerSkipRows+1 {
		return models.NormalizedTable{}, errors.EmptyAfterNormalizationError(source, headerSkipRows, len(table.Rows)).
			WithContext("file", table.FileName)
	}

	header := table.Rows[headerSkipRows]
	keys := HeaderKeys(header)

	headerCells := 0
	for _, cell := range header {
		if strings.TrimSpace(cell) != "" {
			headerCells++
		}
	}

	dataRows := table.Rows[headerSkipRows+1:]
	records := make([]models.CanonicalRecord, 0, len(dataRows))
	for i, row := range dataRows {
		values := make(map[string]string, len(keys))
		populated := false
		for j, key := range keys {
			var value string
			if j < len(row) {
				value = row[j]
			}
			if strings.TrimSpace(value) != "" {
				populated = true
			}
			values[key] = value
		}
		if !populated {
			continue
		}
		records = append(records, models.CanonicalRecord{
			Line:   headerSkipRows + i + 2,
			Values: values,
		})
	}

	if len(records) == 0 {
		return models.NormalizedTable{}, errors.EmptyAfterNormalizationError(source, headerSkipRows, len(table.Rows)).
			WithContext("file", table.FileName)
	}

	return models.NormalizedTable{
		Source:      table.Source,
		Keys:        keys,
		HeaderCells: headerCells,
		Records:     records,
	}, nil
}
