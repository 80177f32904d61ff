// Package jsonutil decodes loosely typed JSON scalars.
package jsonutil

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexibleStringValue renders a JSON scalar as display text. Response records are
// string-valued, but proxies and hand-built fixtures send numbers and booleans too.
// Integer literals keep their exact digits so long numeric serials survive.
// Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal json.Number
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numberString(numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// numberString keeps integer literals verbatim and prints integral floats
// such as 1234.0 or 1e3 without a fraction or exponent.
func numberString(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := n.Float64()
	if err != nil {
		return s
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
