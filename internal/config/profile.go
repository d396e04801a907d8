package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// PROFILE CONFIGURATION STRUCTURE
// =============================================================================

// ProfileConfig describes one kind of batch: which columns a row carries, how
// each column is defaulted, and which rules it must satisfy.
//
// EXAMPLE (profiles/payments.yaml):
//
//	name: payments
//	batch_field: batchId
//	columns:
//	  - key: date
//	    label: Date
//	    default: today
//	    rules: [required, date, not_past]
//	  - key: bankId
//	    label: Bank ID
//	    rules:
//	      - required
//	      - {type: digits, length: 7, message: "Bank ID must be exactly 7 digits"}
type ProfileConfig struct {
	// Name identifies the profile on the command line.
	Name string `yaml:"name"`

	// Description is shown by the profiles command.
	Description string `yaml:"description,omitempty"`

	// BatchField is the column that carries the batch identifier.
	// Default: "batchId"
	BatchField string `yaml:"batch_field"`

	// IDPrefix is prepended to generated row identifiers.
	// Empty means the main config's transaction_id_prefix.
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Columns lists the canonical fields in display order.
	Columns []ColumnConfig `yaml:"columns"`
}

// Column default kinds.
const (
	DefaultText      = "text"
	DefaultToday     = "today"
	DefaultGenerated = "generated"
	DefaultBatch     = "batch"
)

// ColumnConfig describes a single canonical field.
type ColumnConfig struct {
	// Key is the canonical field name used in rows.
	Key string `yaml:"key"`

	// Label is the display label, also tried when resolving imported headers.
	// Default: Key
	Label string `yaml:"label"`

	// Default selects the value given to blank and unresolved cells.
	// Valid values: "text" (empty string), "today", "generated", "batch"
	// Default: "text"
	Default string `yaml:"default"`

	// Rules are evaluated in order; the first failing rule reports.
	Rules []RuleSpec `yaml:"rules"`
}

// IsDate reports whether the column holds a date and gets date normalization.
func (c ColumnConfig) IsDate() bool {
	if c.Default == DefaultToday {
		return true
	}
	for _, r := range c.Rules {
		if r.Type == RuleDate || r.Type == RuleNotPast {
			return true
		}
	}
	return false
}

// =============================================================================
// RULE SPECIFICATION
// =============================================================================

// Rule types understood by the validation engine.
const (
	RuleRequired = "required"
	RuleDate     = "date"
	RuleNotPast  = "not_past"
	RuleDigits   = "digits"
	RuleAlpha    = "alpha"
	RuleName     = "name"
	RuleNumeric  = "numeric"
	RulePositive = "positive"
)

// RuleSpec is the data form of one validation rule.
//
// In YAML it is either a bare type ("required", "digits(8)") or a mapping with
// explicit fields ({type: digits, length: 8, message: "..."}).
type RuleSpec struct {
	// Type is one of the Rule* constants.
	Type string `yaml:"type"`

	// Length is the digit count for "digits".
	Length int `yaml:"length,omitempty"`

	// Message overrides the default human-readable message.
	Message string `yaml:"message,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (r *RuleSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		spec, err := ParseRuleSpec(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*r = spec
		return nil
	}

	type plain RuleSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = RuleSpec(p)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	return nil
}

// ParseRuleSpec parses the scalar rule form, e.g. "required" or "digits(7)".
func ParseRuleSpec(s string) (RuleSpec, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	spec := RuleSpec{Type: s}

	if open := strings.Index(s, "("); open != -1 {
		end := strings.Index(s, ")")
		if end < open {
			return RuleSpec{}, fmt.Errorf("malformed rule %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s[open+1 : end]))
		if err != nil {
			return RuleSpec{}, fmt.Errorf("malformed rule %q: %w", s, err)
		}
		spec.Type = strings.TrimSpace(s[:open])
		spec.Length = n
	}

	return spec, nil
}

// =============================================================================
// PROFILE DEFAULTS AND VALIDATION
// =============================================================================

// ApplyDefaults fills unset fields the same way profile files are filled.
func (p *ProfileConfig) ApplyDefaults() {
	applyProfileDefaults(p)
}

// applyProfileDefaults sets default values for profile configuration.
func applyProfileDefaults(profile *ProfileConfig) {
	if profile.BatchField == "" {
		profile.BatchField = "batchId"
	}
	for i := range profile.Columns {
		col := &profile.Columns[i]
		if col.Label == "" {
			col.Label = col.Key
		}
		if col.Default == "" {
			col.Default = DefaultText
		}
	}
}

// Validate checks a profile for structural mistakes.
func (p *ProfileConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if len(p.Columns) == 0 {
		return fmt.Errorf("profile %q has no columns", p.Name)
	}

	seen := make(map[string]bool, len(p.Columns))
	for _, col := range p.Columns {
		if col.Key == "" {
			return fmt.Errorf("profile %q: column with empty key", p.Name)
		}
		if seen[col.Key] {
			return fmt.Errorf("profile %q: duplicate column %q", p.Name, col.Key)
		}
		seen[col.Key] = true

		switch col.Default {
		case DefaultText, DefaultToday, DefaultGenerated, DefaultBatch:
		default:
			return fmt.Errorf("profile %q: column %q has unknown default %q", p.Name, col.Key, col.Default)
		}

		for _, rule := range col.Rules {
			switch rule.Type {
			case RuleRequired, RuleDate, RuleNotPast, RuleAlpha, RuleName, RuleNumeric, RulePositive:
			case RuleDigits:
				if rule.Length <= 0 {
					return fmt.Errorf("profile %q: column %q: digits rule needs a positive length", p.Name, col.Key)
				}
			default:
				return fmt.Errorf("profile %q: column %q has unknown rule %q", p.Name, col.Key, rule.Type)
			}
		}
	}

	return nil
}

// =============================================================================
// BUILT-IN PROFILES
// =============================================================================

// BuiltinProfiles returns the profiles shipped with the binary.
//
//   - payments:  payroll payments; amount must be positive and the date may
//     not lie in the past. No account length rule.
//   - transfers: debit/credit transfers with generated transaction IDs and
//     8-digit accounts.
//   - employees: employee salary rows; no past-date rule.
func BuiltinProfiles() []ProfileConfig {
	profiles := []ProfileConfig{
		{
			Name:        "payments",
			Description: "Payroll payments (positive debit amount, date today or later)",
			BatchField:  "batchId",
			Columns: []ColumnConfig{
				{Key: "batchId", Label: "Batch ID", Default: DefaultBatch},
				{Key: "date", Label: "Date", Default: DefaultToday, Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Date must be in yyyy-mm-dd format"},
					{Type: RuleDate, Message: "Date must be in yyyy-mm-dd format"},
					{Type: RuleNotPast, Message: "Date cannot be in the past"},
				}},
				{Key: "debitAccount", Label: "Debit Account", Rules: []RuleSpec{{Type: RuleRequired}}},
				{Key: "creditAccount", Label: "Credit Account", Rules: []RuleSpec{{Type: RuleRequired}}},
				{Key: "debitCurrency", Label: "Debit Currency", Rules: []RuleSpec{{Type: RuleRequired}}},
				{Key: "debitAmount", Label: "Debit Amount", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Valid Debit Amount is required"},
					{Type: RuleNumeric, Message: "Valid Debit Amount is required"},
					{Type: RulePositive, Message: "Valid Debit Amount is required"},
				}},
				{Key: "creditCurrency", Label: "Credit Currency", Rules: []RuleSpec{{Type: RuleRequired}}},
				{Key: "employeeName", Label: "Employee Name", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Employee Name must contain only alphabets"},
					{Type: RuleName, Message: "Employee Name must contain only alphabets"},
				}},
				{Key: "bankId", Label: "Bank ID", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Bank ID must be exactly 7 digits"},
					{Type: RuleDigits, Length: 7, Message: "Bank ID must be exactly 7 digits"},
				}},
				{Key: "remarks", Label: "Remarks"},
			},
		},
		{
			Name:        "transfers",
			Description: "Debit/credit transfers with generated transaction IDs",
			BatchField:  "batchId",
			IDPrefix:    "TXN-",
			Columns: []ColumnConfig{
				{Key: "batchId", Label: "Batch ID", Default: DefaultBatch},
				{Key: "transactionId", Label: "Transaction ID", Default: DefaultGenerated, Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
				}},
				{Key: "date", Label: "Date", Default: DefaultToday, Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleDate},
				}},
				{Key: "debitAccount", Label: "Debit Account", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleDigits, Length: 8, Message: "Must be 8 digits"},
				}},
				{Key: "creditAccount", Label: "Credit Account", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleDigits, Length: 8, Message: "Must be 8 digits"},
				}},
				{Key: "debitCurrency", Label: "Debit Currency", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleAlpha, Message: "Alphabets only"},
				}},
				{Key: "debitAmount", Label: "Debit Amount", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleNumeric, Message: "Must be numeric"},
				}},
				{Key: "creditCurrency", Label: "Credit Currency", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleAlpha, Message: "Alphabets only"},
				}},
				{Key: "creditAmount", Label: "Credit Amount", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleNumeric, Message: "Must be numeric"},
				}},
				{Key: "employeeName", Label: "Employee Name", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleName, Message: "Only alphabets allowed"},
				}},
				{Key: "bankID", Label: "Bank ID", Rules: []RuleSpec{
					{Type: RuleRequired, Message: "Required"},
					{Type: RuleDigits, Length: 7, Message: "Bank ID must be exactly 7 digits"},
				}},
				{Key: "remarks", Label: "Remarks (optional)"},
			},
		},
		{
			Name:        "employees",
			Description: "Employee salary rows",
			BatchField:  "batchId",
			IDPrefix:    "EMP-",
			Columns: []ColumnConfig{
				{Key: "batchId", Label: "Batch ID", Default: DefaultBatch},
				{Key: "id", Label: "ID", Default: DefaultGenerated, Rules: []RuleSpec{{Type: RuleRequired}}},
				{Key: "date", Label: "Date", Default: DefaultToday, Rules: []RuleSpec{
					{Type: RuleRequired},
					{Type: RuleDate},
				}},
				{Key: "name", Label: "Name", Rules: []RuleSpec{
					{Type: RuleRequired},
					{Type: RuleName},
				}},
				{Key: "salary", Label: "Salary", Rules: []RuleSpec{
					{Type: RuleRequired},
					{Type: RuleNumeric},
				}},
				{Key: "bank", Label: "Bank", Rules: []RuleSpec{
					{Type: RuleRequired},
					{Type: RuleDigits, Length: 7},
				}},
				{Key: "remarks", Label: "Remarks"},
			},
		},
	}

	for i := range profiles {
		applyProfileDefaults(&profiles[i])
	}
	return profiles
}
