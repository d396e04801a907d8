// =============================================================================
// Payroll Batch Importer - XLSX Decoder
// =============================================================================
//
// This module reads a payroll spreadsheet into loosely typed records. Only
// the first sheet is read. Its first row is the header row; every following
// non-empty row becomes one record keyed by header text.
//
// CELL VALUES:
//   | Cell                         | Record value                    |
//   |------------------------------|---------------------------------|
//   | numeric with a date format   | time.Time                       |
//   | numeric shown as a plain number | formatted text (keeps zero padding) |
//   | numeric with any other format | raw stored number, e.g. 1500.5 |
//   | anything else                | formatted text as Excel shows it |
//   | blank                        | absent from the record          |
//
// A workbook with no sheet, or a sheet holding only a header row, yields zero
// records.
//
// =============================================================================

package xlsxparser

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// Decoder decodes XLSX workbooks. The zero value is ready to use.
type Decoder struct{}

// Decode reads the first sheet of the workbook in r.
//
// PARAMETERS:
//   - ctx: checked between rows
//   - r: the workbook bytes
//
// RETURNS:
//   - One record per non-empty data row, in sheet order.
//   - An error if the bytes are not a readable workbook.
func (Decoder) Decode(ctx context.Context, r io.Reader) ([]types.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}
	rawRows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]types.Record, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		rec := make(types.Record, len(headers))
		for col, cell := range row {
			if col >= len(headers) || headers[col] == "" || cell == "" {
				continue
			}
			if _, exists := rec[headers[col]]; exists {
				continue
			}

			rec[headers[col]] = cellText(cell, rawRows, i, col)
			if t, ok := dateCell(f, sheetName, col+1, i+1, date1904); ok {
				rec[headers[col]] = t
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// cellText returns the value to store for a non-date cell. A number shown
// with thousands separators, a currency symbol or a percent sign is replaced
// by the stored number so it still parses as one.
func cellText(formatted string, rawRows [][]string, row, col int) string {
	if isPlainNumber(formatted) || row >= len(rawRows) || col >= len(rawRows[row]) {
		return formatted
	}
	raw := strings.TrimSpace(rawRows[row][col])
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return formatted
	}
	return raw
}

// isPlainNumber reports whether s is an optional minus sign followed by
// digits with at most one decimal point.
func isPlainNumber(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r == '.' && !dot:
			dot = true
		case r < '0' || r > '9':
			return false
		}
	}
	return s != "."
}

// =============================================================================
// DATE CELLS
// =============================================================================

// dateCell returns the cell as a time when it holds a number formatted as a
// date. col and row are 1-based.
func dateCell(f *excelize.File, sheet string, col, row int, date1904 bool) (time.Time, bool) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return time.Time{}, false
	}

	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return time.Time{}, false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || !isDateFormat(style) {
		return time.Time{}, false
	}

	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return time.Time{}, false
	}

	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// isDateFormat reports whether a cell style renders numbers as dates.
// Built-in IDs follow ECMA-376 18.8.30.
func isDateFormat(style *excelize.Style) bool {
	if style.CustomNumFmt != nil {
		return isDateLayout(*style.CustomNumFmt)
	}
	switch n := style.NumFmt; {
	case n >= 14 && n <= 22:
		return true
	case n >= 27 && n <= 36:
		return true
	case n >= 45 && n <= 47:
		return true
	case n >= 50 && n <= 58:
		return true
	}
	return false
}

// isDateLayout reports whether a custom number format contains a day or year
// token outside quoted literals and bracketed sections.
func isDateLayout(layout string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(layout) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
