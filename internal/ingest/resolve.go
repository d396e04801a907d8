package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/types"
)

// =============================================================================
// COLUMN RESOLUTION
// =============================================================================

// Resolver proposes the header under which a column may appear in an
// imported file.
type Resolver struct {
	Name   string
	Header func(col config.ColumnConfig) string
}

// DefaultResolvers is the fixed lookup order: exact key, display label,
// capitalized key.
var DefaultResolvers = []Resolver{
	{Name: "key", Header: func(col config.ColumnConfig) string { return col.Key }},
	{Name: "label", Header: func(col config.ColumnConfig) string { return col.Label }},
	{Name: "capitalized", Header: func(col config.ColumnConfig) string { return Capitalize(col.Key) }},
}

// Resolve finds the cell for col in rec. The first resolver whose header is
// present with a non-blank value wins.
//
// RETURNS:
//   - The raw cell value.
//   - The name of the resolver that matched.
//   - false if no resolver matched.
func Resolve(rec types.Record, col config.ColumnConfig, resolvers []Resolver) (any, string, bool) {
	for _, r := range resolvers {
		header := r.Header(col)
		if header == "" {
			continue
		}
		v, ok := rec[header]
		if !ok || strings.TrimSpace(CellString(v)) == "" {
			continue
		}
		return v, r.Name, true
	}
	return nil, "", false
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// CellString renders a decoded cell as row text.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
