package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RULE TYPES
// =============================================================================

// Context carries the inputs a rule may depend on besides the value itself.
type Context struct {
	// Today is midnight of the current calendar day in the caller's location.
	Today time.Time
}

// Predicate reports whether value satisfies a rule.
type Predicate func(value string, ctx Context) bool

// Rule is a named predicate with the message reported when it fails.
type Rule struct {
	// Name is the rule type, e.g. "digits".
	Name string

	// Message is reported in the ErrorMap when Check fails.
	Message string

	// Check is the predicate.
	Check Predicate

	// OnBlank makes the rule run on blank values. Only "required" sets it;
	// every other rule treats a blank value as passing.
	OnBlank bool
}

// =============================================================================
// RULE CONSTRUCTORS
// =============================================================================

const dateLayout = "2006-01-02"

var (
	dateShape = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	alphaOnly = regexp.MustCompile(`^[A-Za-z]+$`)
	nameChars = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// Required fails on absent, empty, or whitespace-only values.
func Required(message string) Rule {
	return Rule{
		Name:    config.RuleRequired,
		Message: message,
		OnBlank: true,
		Check: func(value string, _ Context) bool {
			return !isBlank(value)
		},
	}
}

// Date requires the YYYY-MM-DD shape and a real calendar date.
func Date(message string) Rule {
	return Rule{
		Name:    config.RuleDate,
		Message: message,
		Check: func(value string, _ Context) bool {
			if !dateShape.MatchString(value) {
				return false
			}
			_, err := time.Parse(dateLayout, value)
			return err == nil
		},
	}
}

// NotPast fails when the date is strictly earlier than ctx.Today.
// Unparseable values pass; pair it with Date to report those.
func NotPast(message string) Rule {
	return Rule{
		Name:    config.RuleNotPast,
		Message: message,
		Check: func(value string, ctx Context) bool {
			loc := ctx.Today.Location()
			d, err := time.ParseInLocation(dateLayout, value, loc)
			if err != nil {
				return true
			}
			return !d.Before(ctx.Today)
		},
	}
}

// Digits requires exactly n ASCII digits.
func Digits(n int, message string) Rule {
	re := regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, n))
	return Rule{
		Name:    config.RuleDigits,
		Message: message,
		Check: func(value string, _ Context) bool {
			return re.MatchString(value)
		},
	}
}

// Alpha requires ASCII letters only.
func Alpha(message string) Rule {
	return Rule{
		Name:    config.RuleAlpha,
		Message: message,
		Check: func(value string, _ Context) bool {
			return alphaOnly.MatchString(value)
		},
	}
}

// Name requires ASCII letters and spaces only.
func Name(message string) Rule {
	return Rule{
		Name:    config.RuleName,
		Message: message,
		Check: func(value string, _ Context) bool {
			return nameChars.MatchString(value)
		},
	}
}

// Numeric requires a value that parses as a decimal number.
func Numeric(message string) Rule {
	return Rule{
		Name:    config.RuleNumeric,
		Message: message,
		Check: func(value string, _ Context) bool {
			_, err := decimal.NewFromString(strings.TrimSpace(value))
			return err == nil
		},
	}
}

// Positive requires a number strictly greater than zero.
func Positive(message string) Rule {
	return Rule{
		Name:    config.RulePositive,
		Message: message,
		Check: func(value string, _ Context) bool {
			d, err := decimal.NewFromString(strings.TrimSpace(value))
			return err == nil && d.IsPositive()
		},
	}
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// =============================================================================
// COMPILING RULE SPECS
// =============================================================================

// FromSpec builds a Rule from its configuration form. label is the column's
// display label and is used in default messages.
func FromSpec(spec config.RuleSpec, label string) (Rule, error) {
	msg := func(def string) string {
		if spec.Message != "" {
			return spec.Message
		}
		return def
	}

	switch spec.Type {
	case config.RuleRequired:
		return Required(msg(label + " is required")), nil
	case config.RuleDate:
		return Date(msg(label + " must be a valid yyyy-mm-dd date")), nil
	case config.RuleNotPast:
		return NotPast(msg(label + " cannot be in the past")), nil
	case config.RuleDigits:
		if spec.Length <= 0 {
			return Rule{}, fmt.Errorf("digits rule for %q needs a positive length", label)
		}
		return Digits(spec.Length, msg(fmt.Sprintf("%s must be exactly %d digits", label, spec.Length))), nil
	case config.RuleAlpha:
		return Alpha(msg(label + " must contain only alphabets")), nil
	case config.RuleName:
		return Name(msg(label + " must contain only alphabets and spaces")), nil
	case config.RuleNumeric:
		return Numeric(msg(label + " must be numeric")), nil
	case config.RulePositive:
		return Positive(msg(label + " must be greater than zero")), nil
	default:
		return Rule{}, fmt.Errorf("unknown rule %q for %q", spec.Type, label)
	}
}

// Compile turns the column configuration of a profile into a RuleSet.
// Columns without rules are left out.
func Compile(columns []config.ColumnConfig) (RuleSet, error) {
	var set RuleSet
	for _, col := range columns {
		if len(col.Rules) == 0 {
			continue
		}
		fr := FieldRules{Field: col.Key}
		for _, spec := range col.Rules {
			rule, err := FromSpec(spec, col.Label)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col.Key, err)
			}
			fr.Rules = append(fr.Rules, rule)
		}
		set = append(set, fr)
	}
	return set, nil
}
