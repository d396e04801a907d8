// =============================================================================
// Payroll Batch Importer - Validation Engine
// =============================================================================
//
// This module decides whether a row is valid. It evaluates a configurable rule
// table against a single row and returns every failing field with a
// human-readable message. It never returns a Go error for bad data: field
// failures are results, not faults.
//
// RULE TABLE:
//   A RuleSet is an ordered list of FieldRules. Each FieldRules names a field
//   and the rules it must satisfy, in order:
//
//   | Field        | Rules                                |
//   |--------------|--------------------------------------|
//   | date         | required, date, not_past             |
//   | bankId       | required, digits(7)                  |
//   | debitAmount  | required, numeric, positive          |
//   | remarks      | (none)                               |
//
// VALIDATION STRATEGY:
//   1. Every field in the table is evaluated; one failing field never hides
//      another.
//   2. Within a field, rules run in order and the first failure is recorded.
//   3. Only "required" looks at blank values; the other rules pass on blanks
//      so a blank field reports the required message alone.
//
// TIME:
//   The current date is an explicit parameter. Callers read the wall clock
//   once at the outermost layer and pass it in.
//
// =============================================================================

package validation

import (
	"time"

	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// =============================================================================
// RULE TABLE
// =============================================================================

// FieldRules binds an ordered rule list to a field.
type FieldRules struct {
	Field string
	Rules []Rule
}

// RuleSet is the full rule table for one profile.
type RuleSet []FieldRules

// Fields returns the validated field names in table order.
func (s RuleSet) Fields() []string {
	fields := make([]string, len(s))
	for i, fr := range s {
		fields[i] = fr.Field
	}
	return fields
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator applies a fixed RuleSet to rows.
type Validator struct {
	rules RuleSet
}

// NewValidator creates a new Validator instance.
func NewValidator(rules RuleSet) *Validator {
	return &Validator{rules: rules}
}

// Validate validates one row. See the package-level Validate.
func (v *Validator) Validate(row types.Row, now time.Time) types.ErrorMap {
	return Validate(row, v.rules, now)
}

// ValidateAll validates rows in order and returns one ErrorMap per row.
func (v *Validator) ValidateAll(rows []types.Row, now time.Time) []types.ErrorMap {
	out := make([]types.ErrorMap, len(rows))
	for i, row := range rows {
		out[i] = Validate(row, v.rules, now)
	}
	return out
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks row against rules as of the calendar day of now.
//
// PARAMETERS:
//   - row: The row to validate. Absent fields are treated as empty.
//   - rules: The rule table.
//   - now: Any instant on the current day; only its date and location matter.
//
// RETURNS:
//   - An ErrorMap holding one message per failing field. Never nil; empty
//     means the row is clean.
func Validate(row types.Row, rules RuleSet, now time.Time) types.ErrorMap {
	ctx := Context{Today: midnight(now)}
	errs := make(types.ErrorMap)

	for _, fr := range rules {
		value := row[fr.Field]
		blank := isBlank(value)

		for _, rule := range fr.Rules {
			if blank && !rule.OnBlank {
				continue
			}
			if !rule.Check(value, ctx) {
				errs[fr.Field] = rule.Message
				break
			}
		}
	}

	return errs
}

// midnight truncates t to the start of its calendar day in t's location.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
