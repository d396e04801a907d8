package xlsxparser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/schema"
	"github.com/ginjaninja78/payroll-batch/internal/types"
)

const (
	templateSheet = "Batch"
	profileSheet  = "Profile"
	columnWidth   = 20
)

// WriteTemplate writes a workbook whose header row holds the column labels
// of s, followed by rows. The result can be filled in and imported again.
func WriteTemplate(w io.Writer, s *schema.Schema, rows []types.Row) error {
	labels := s.Labels()
	headers := make([]interface{}, len(labels))
	for i, label := range labels {
		headers[i] = label
	}

	body := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(s.Columns))
		for j, col := range s.Columns {
			cells[j] = row[col.Key]
		}
		body[i] = cells
	}

	return writeSheet(w, templateSheet, headers, body)
}

// WriteProfile writes p in the layout ParseProfile reads.
func WriteProfile(w io.Writer, p *config.ProfileConfig) error {
	headers := []interface{}{"Key", "Label", "Default", "Rules", "Message"}

	body := make([][]interface{}, len(p.Columns))
	for i, col := range p.Columns {
		rules := make([]string, len(col.Rules))
		message := ""
		for j, r := range col.Rules {
			rules[j] = r.Type
			if r.Type == config.RuleDigits {
				rules[j] = r.Type + "(" + strconv.Itoa(r.Length) + ")"
			}
			if message == "" {
				message = r.Message
			}
		}
		body[i] = []interface{}{col.Key, col.Label, col.Default, strings.Join(rules, ", "), message}
	}

	return writeSheet(w, profileSheet, headers, body)
}

// writeSheet writes a single-sheet workbook with a bold, frozen header row.
func writeSheet(w io.Writer, sheet string, headers []interface{}, body [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i := range body {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &body[i]); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if len(headers) > 0 {
		lastCol, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return err
		}

		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
			return fmt.Errorf("failed to style header row: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", lastCol, columnWidth); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
