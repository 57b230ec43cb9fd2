// Package domain defines the core domain models for confmesh.
package domain

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"
)

// ConfigMap is a flat or nested key -> value mapping produced by a source.
//
// Values are one of: string, float64, bool, nil, []any or a nested ConfigMap
// (map[string]any). Keys are case-sensitive.
type ConfigMap = map[string]any

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromStrings converts a string mapping into a ConfigMap.
func FromStrings(m map[string]string) ConfigMap {
	out := make(ConfigMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of m. Nested maps and slices are copied so the
// result shares no mutable state with m.
func Clone(m map[string]any) ConfigMap {
	if m == nil {
		return nil
	}
	out := make(ConfigMap, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Normalize returns a deep copy of m in which every value has the shape that
// encoding/json produces when decoding into map[string]any: integers and
// floats become float64, typed maps become map[string]any and typed slices
// become []any. Values of any other type are rendered with fmt.Sprint.
// Invalid UTF-8 in strings and keys is replaced with U+FFFD, as encoding/json
// does on marshal.
//
// A normalized map survives a JSON marshal/unmarshal cycle unchanged.
func Normalize(m map[string]any) ConfigMap {
	if m == nil {
		return ConfigMap{}
	}
	out := make(ConfigMap, len(m))
	for k, v := range m {
		out[validString(k)] = normalizeValue(v)
	}
	return out
}

func validString(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return validString(t)
	case bool, float64:
		return t
	case map[string]any:
		return Normalize(t)
	case map[string]string:
		return Normalize(FromStrings(t))
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalizeValue(e)
		}
		return s
	case []string:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = validString(e)
		}
		return s
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return validString(rv.String())
	case reflect.Slice, reflect.Array:
		s := make([]any, rv.Len())
		for i := range s {
			s[i] = normalizeValue(rv.Index(i).Interface())
		}
		return s
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Sprint(v)
		}
		out := make(ConfigMap, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[validString(iter.Key().String())] = normalizeValue(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalizeValue(rv.Elem().Interface())
	default:
		return fmt.Sprint(v)
	}
}
