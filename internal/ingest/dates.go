package ingest

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the canonical row date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

var (
	isoDate    = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	compactDay = regexp.MustCompile(`^[0-9]{8}$`)
	nonDigit   = regexp.MustCompile(`[^0-9]`)
)

// genericDateLayouts are tried, in order, for imported dates that are neither
// canonical nor compact. Four-digit years only.
var genericDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
}

// Today formats the calendar day of now as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// NormalizeDate converts an imported date-like cell to YYYY-MM-DD.
//
//   - time.Time                 -> formatted
//   - "20240305"                -> "2024-03-05" (positional, not range-checked)
//   - "2024-03-05"              -> unchanged
//   - anything parseable by one of genericDateLayouts -> formatted
//   - anything else             -> the original string, unchanged
//
// Unparseable input is never dropped; validation reports it later.
func NormalizeDate(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case string:
		return normalizeDateString(t)
	default:
		return normalizeDateString(CellString(v))
	}
}

func normalizeDateString(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}

	if compactDay.MatchString(trimmed) {
		return trimmed[:4] + "-" + trimmed[4:6] + "-" + trimmed[6:]
	}

	if isoDate.MatchString(trimmed) {
		return trimmed
	}

	for _, layout := range genericDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(DateLayout)
		}
	}

	return s
}

// FormatDateInput groups typed date input progressively into YYYY-MM-DD.
// Non-digits are dropped and at most eight digits are kept:
//
//	"2024"      -> "2024"
//	"202401"    -> "2024-01"
//	"20240115"  -> "2024-01-15"
//	"2024-01"   -> "2024-01"
func FormatDateInput(raw string) string {
	digits := nonDigit.ReplaceAllString(raw, "")
	if len(digits) > 8 {
		digits = digits[:8]
	}

	switch {
	case len(digits) <= 4:
		return digits
	case len(digits) <= 6:
		return digits[:4] + "-" + digits[4:]
	default:
		return digits[:4] + "-" + digits[4:6] + "-" + digits[6:]
	}
}
