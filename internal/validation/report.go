package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// =============================================================================
// VALIDATION ERROR REPORTING
// =============================================================================

// ValidationError is one failing field of one row, flattened for reports.
type ValidationError struct {
	// RowNumber is the 1-based position of the row in the batch.
	RowNumber int

	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Message is the human-readable message from the rule.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("Row %d, Field '%s': %s (value: '%s')",
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// Collect flattens the errors of every entry into report order: by row, then
// by field name.
func Collect(entries []types.Entry) []*ValidationError {
	var out []*ValidationError
	for i, entry := range entries {
		for _, field := range entry.Errors.Fields() {
			out = append(out, &ValidationError{
				RowNumber: i + 1,
				Field:     field,
				Value:     entry.Row[field],
				Message:   entry.Errors[field],
			})
		}
	}
	return out
}

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
