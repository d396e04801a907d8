// =============================================================================
// Payroll Batch Importer - XLSX Profile Parser
// =============================================================================
//
// This module parses XLSX workbooks that define a batch profile, so payroll
// teams can maintain column rules in a spreadsheet instead of YAML. Each data
// row of the first sheet describes one column:
//
//   | Column A | Column B  | Column C | Column D              | Column E                  |
//   |----------|-----------|----------|-----------------------|---------------------------|
//   | Key      | Label     | Default  | Rules                 | Message                   |
//   | batchId  | Batch ID  | batch    |                       |                           |
//   | date     | Date      | today    | required, date        | Date must be yyyy-mm-dd   |
//   | bankId   | Bank ID   |          | required, digits(7)   | Bank ID must be 7 digits  |
//
// Rules are separated by commas or semicolons and use the same scalar form
// as YAML profiles. A Message applies to every rule of its row.
//
// Column positions are configurable via the ProfileColumns struct.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/payroll-batch/internal/config"
)

// =============================================================================
// PROFILE COLUMN CONFIGURATION
// =============================================================================

// ProfileColumns defines which columns of a profile workbook hold which data.
// Column indices are 0-based (A=0, B=1, C=2, etc.)
type ProfileColumns struct {
	KeyColumn     int
	LabelColumn   int
	DefaultColumn int
	RulesColumn   int
	MessageColumn int

	// DataStartRow is the row number where column definitions begin (0-based).
	// Default: 1 (Row 2)
	DataStartRow int
}

// DefaultProfileColumns returns the default column configuration.
func DefaultProfileColumns() ProfileColumns {
	return ProfileColumns{
		KeyColumn:     0, // Column A
		LabelColumn:   1, // Column B
		DefaultColumn: 2, // Column C
		RulesColumn:   3, // Column D
		MessageColumn: 4, // Column E
		DataStartRow:  1, // Row 2
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseProfile reads a profile workbook using the default column layout.
//
// PARAMETERS:
//   - r: the workbook bytes
//   - name: the profile name
//
// RETURNS:
//   - The profile with defaults applied, already validated.
//   - An error if the workbook cannot be read or describes an invalid profile.
func ParseProfile(r io.Reader, name string) (*config.ProfileConfig, error) {
	return ParseProfileWithConfig(r, name, DefaultProfileColumns())
}

// ParseProfileWithConfig reads a profile workbook using a custom column layout.
func ParseProfileWithConfig(r io.Reader, name string, columns ProfileColumns) (*config.ProfileConfig, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("profile workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	profile := &config.ProfileConfig{Name: name}
	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]

		if isRowEmpty(row) {
			continue
		}

		col, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
		}

		// Skip rows with no key (notes, section titles).
		if col.Key == "" {
			continue
		}

		profile.Columns = append(profile.Columns, col)
	}

	profile.ApplyDefaults()
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}

// parseRow extracts a ColumnConfig from a single row.
func parseRow(row []string, columns ProfileColumns) (config.ColumnConfig, error) {
	getCell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	col := config.ColumnConfig{
		Key:     getCell(columns.KeyColumn),
		Label:   getCell(columns.LabelColumn),
		Default: normalizeDefault(getCell(columns.DefaultColumn)),
	}

	message := getCell(columns.MessageColumn)
	for _, part := range strings.FieldsFunc(getCell(columns.RulesColumn), isRuleSeparator) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		spec, err := config.ParseRuleSpec(part)
		if err != nil {
			return config.ColumnConfig{}, err
		}
		spec.Type = normalizeRuleType(spec.Type)
		spec.Message = message
		col.Rules = append(col.Rules, spec)
	}

	return col, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func isRuleSeparator(r rune) bool {
	return r == ',' || r == ';'
}

// normalizeDefault maps the workbook's default wording to a column default.
func normalizeDefault(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "today", "date", "now", "current date":
		return config.DefaultToday
	case "generated", "generate", "id", "uuid", "auto":
		return config.DefaultGenerated
	case "batch", "batch id", "batchid":
		return config.DefaultBatch
	default:
		return config.DefaultText
	}
}

// normalizeRuleType maps common spreadsheet spellings to rule types.
func normalizeRuleType(value string) string {
	switch value {
	case "req", "mandatory":
		return config.RuleRequired
	case "not past", "notpast", "future", "not-past":
		return config.RuleNotPast
	case "number", "decimal", "amount":
		return config.RuleNumeric
	case "letters", "alphabets":
		return config.RuleAlpha
	case "positive number", "greater than zero":
		return config.RulePositive
	default:
		return value
	}
}
