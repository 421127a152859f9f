// internal/app/system/sheet/row.go
package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is one decoded data row keyed by header text. Values are string,
// float64 or bool depending on the cell type the workbook recorded.
type Row map[string]any

// truthy holds the upper-cased spellings accepted as boolean true.
var truthy = map[string]struct{}{
	"SI":   {},
	"SÍ":   {},
	"TRUE": {},
}

// Value returns the first non-blank value found under keys, in order.
func (r Row) Value(keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// Text returns the first non-blank value under keys as a trimmed string,
// or "" when none of the keys is present. Numeric cells are rendered
// without exponent so long identifiers survive intact.
func (r Row) Text(keys ...string) string {
	v, ok := r.Value(keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(FormatValue(v))
}

// Bool reports whether the first non-blank value under keys is boolean
// true or one of SI / SÍ / TRUE (any case). Any other value, and a missing
// column, yields def.
func (r Row) Bool(def bool, keys ...string) bool {
	v, ok := r.Value(keys...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		if t {
			return true
		}
	case string:
		if _, yes := truthy[strings.ToUpper(strings.TrimSpace(t))]; yes {
			return true
		}
	}
	return def
}

// FormatValue renders a cell value as text.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(v)
	}
}
