// =============================================================================
// Payroll Batch Importer - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - validation
//   - ingest
//   - batch
//   - xlsxparser / csvparser
//   - xmlwriter
//
// =============================================================================

package types

import (
	"sort"
	"time"
)

// =============================================================================
// ROW TYPES
// =============================================================================

// Row is one payment or employee record.
// Key is the canonical field name, value is the field value.
// Amount fields hold numeric strings.
type Row map[string]string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Record is one decoded spreadsheet record.
// Key is the raw column header as it appeared in the file. Values are strings,
// time.Time for native spreadsheet dates, or numbers.
type Record map[string]any

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorMap maps a field name to a human-readable validation message.
// A field that passed every rule is absent from the map.
type ErrorMap map[string]string

// Clean reports whether the map holds no violations.
func (m ErrorMap) Clean() bool {
	return len(m) == 0
}

// Fields returns the failing field names in sorted order.
func (m ErrorMap) Fields() []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Entry is one row of a batch together with its own validation result.
type Entry struct {
	Row    Row
	Errors ErrorMap
}

// Clean reports whether the entry passed validation.
func (e Entry) Clean() bool {
	return e.Errors.Clean()
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submission is what a clean batch hands to its sink when processed.
type Submission struct {
	// BatchID is the batch identifier shared by every row.
	BatchID string

	// Profile is the name of the rule profile the batch was validated with.
	Profile string

	// Columns is the canonical field order for output.
	Columns []string

	// Rows holds copies of the batch rows in insertion order.
	Rows []Row

	// SubmittedAt is the clock reading at processing time.
	SubmittedAt time.Time
}
