// Package transform holds optional post-merge transforms. They are applied by
// callers after a load and never by the engine itself.
package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yndnr/confmesh/internal/core/domain"
)

var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// maxExactInt is the largest integer a float64 holds exactly.
const maxExactInt = 1 << 53

// Coerce returns a copy of m in which string values that look like booleans
// or numbers are converted. Nested maps are walked; other values are kept.
func Coerce(m domain.ConfigMap) domain.ConfigMap {
	if m == nil {
		return nil
	}
	out := make(domain.ConfigMap, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case string:
			out[k] = CoerceValue(t)
		case map[string]any:
			out[k] = Coerce(t)
		default:
			out[k] = v
		}
	}
	return out
}

// CoerceValue converts one string:
//
//   - "true" / "false" (any case) become bool
//   - decimal numbers become float64, unless they have leading zeros or
//     cannot be represented exactly
//   - everything else is returned unchanged
func CoerceValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}

	if !numberPattern.MatchString(s) {
		return s
	}

	if !strings.Contains(s, ".") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n > maxExactInt || n < -maxExactInt {
			return s
		}
		return float64(n)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return f
}
