// =============================================================================
// Payroll Batch Importer - CSV Decoder
// =============================================================================
//
// This module reads payroll rows exported as CSV. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Multi-line headers
//   - Quoted fields with lazy quote handling
//
// Every non-empty data row becomes one record keyed by header text. CSV has
// no native dates, so every value is a string; date columns are normalized
// later by the ingestor.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// utf8BOM is stripped from the first header cell. Spreadsheet tools write it
// when exporting CSV.
const utf8BOM = "\uFEFF"

// Decoder decodes CSV files.
type Decoder struct {
	Settings config.CSVSettings
}

// NewDecoder creates a Decoder with settings.
func NewDecoder(settings config.CSVSettings) *Decoder {
	return &Decoder{Settings: settings}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Decode reads all of r.
//
// PARAMETERS:
//   - ctx: checked between rows
//   - r: the CSV bytes
//
// RETURNS:
//   - One record per non-empty data row, in file order. An empty file or a
//     header-only file yields zero records.
//   - An error if the CSV is malformed.
func (d *Decoder) Decode(ctx context.Context, r io.Reader) ([]types.Record, error) {
	settings := d.Settings
	if settings.HeaderRows <= 0 {
		settings.HeaderRows = 1
	}

	csvReader := csv.NewReader(bufio.NewReader(r))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) <= settings.HeaderRows {
		return nil, nil
	}

	headers := extractHeaders(allRows, settings.HeaderRows)

	records := make([]types.Record, 0, len(allRows)-settings.HeaderRows)
	for _, row := range allRows[settings.HeaderRows:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if isRowEmpty(row) {
			continue
		}

		rec := make(types.Record, len(headers))
		for col, header := range headers {
			if col >= len(row) {
				break
			}
			value := strings.TrimSpace(row[col])
			if value == "" {
				continue
			}
			if _, exists := rec[header]; !exists {
				rec[header] = value
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// delimiterAliases maps configuration words to delimiter runes.
var delimiterAliases = map[string]rune{
	"tab":       '\t',
	`\t`:        '\t',
	"pipe":      '|',
	"semicolon": ';',
	"comma":     ',',
}

// configureReader applies settings to reader. Rows may have any number of
// fields and quotes are read leniently. Leading space is not trimmed for a
// whitespace delimiter, where it would swallow empty fields.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = delimiter(settings.Delimiter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = !unicode.IsSpace(reader.Comma)
}

// delimiter resolves a configured delimiter. Empty means comma; otherwise an
// alias or the first rune of the setting.
func delimiter(setting string) rune {
	if r, ok := delimiterAliases[strings.ToLower(setting)]; ok {
		return r
	}
	for _, r := range setting {
		return r
	}
	return ','
}

// extractHeaders merges the first headerRows rows into one header row.
//
// MULTI-LINE HEADER HANDLING:
//
//	Row 1: "Debit", "",       "Employee"
//	Row 2: "Amount", "Remarks", "Name"
//	Result: "Debit Amount", "Remarks", "Employee Name"
func extractHeaders(allRows [][]string, headerRows int) []string {
	width := 0
	for _, row := range allRows[:headerRows] {
		width = max(width, len(row))
	}

	headers := make([]string, width)
	for col := range headers {
		var parts []string
		for _, row := range allRows[:headerRows] {
			if col >= len(row) {
				continue
			}
			if part := strings.TrimSpace(row[col]); part != "" {
				parts = append(parts, part)
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers)
}

// cleanHeaders trims headers and names empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, utf8BOM)
		}
		header = strings.TrimSpace(header)

		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		cleaned[i] = header
	}

	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
