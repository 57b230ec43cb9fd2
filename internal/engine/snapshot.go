package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/infra/confloader"
)

// Snapshot is one immutable merged configuration.
//
// Values are held in normalized form, so a Snapshot and its JSON encoding
// describe the same mapping. Accessors return copies; nothing reachable from
// a Snapshot can be mutated by callers.
type Snapshot struct {
	values      domain.ConfigMap
	keys        []string
	fingerprint uint64
}

// NewSnapshot builds a Snapshot from values. The input is copied.
func NewSnapshot(values map[string]any) *Snapshot {
	norm := domain.Normalize(values)
	return &Snapshot{
		values:      norm,
		keys:        domain.SortedKeys(norm),
		fingerprint: Fingerprint(norm),
	}
}

// Fingerprint hashes the canonical JSON form of m. Equal mappings produce
// equal fingerprints; encoding/json sorts map keys.
func Fingerprint(m map[string]any) uint64 {
	data, err := json.Marshal(m)
	if err != nil {
		return 0
	}
	return murmur3.Sum64(data)
}

// Get returns the value of key and whether it is present.
func (s *Snapshot) Get(key string) (any, bool) {
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return domain.Clone(map[string]any{key: v})[key], true
}

// All returns a deep copy of every key.
func (s *Snapshot) All() domain.ConfigMap {
	out := domain.Clone(s.values)
	if out == nil {
		return domain.ConfigMap{}
	}
	return out
}

// Keys returns the keys in lexical order.
func (s *Snapshot) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Len returns the number of keys.
func (s *Snapshot) Len() int {
	return len(s.keys)
}

// Fingerprint returns the hash of the snapshot contents.
func (s *Snapshot) Fingerprint() uint64 {
	return s.fingerprint
}

// MarshalJSON encodes the snapshot as a plain JSON object.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

// Unmarshal decodes the snapshot into target using koanf struct tags.
func (s *Snapshot) Unmarshal(target any) error {
	return confloader.Decode(s.values, target)
}

// String returns key as a string, or def when absent or nil.
func (s *Snapshot) String(key, def string) string {
	v, ok := s.values[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// Int returns key as an int, or def when absent or not integral.
func (s *Snapshot) Int(key string, def int) int {
	switch t := s.values[key].(type) {
	case float64:
		if t == float64(int(t)) {
			return int(t)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

// Float returns key as a float64, or def when absent or not numeric.
func (s *Snapshot) Float(key string, def float64) float64 {
	switch t := s.values[key].(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns key as a bool, or def when absent or not boolean.
func (s *Snapshot) Bool(key string, def bool) bool {
	switch t := s.values[key].(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

// Duration returns key parsed with time.ParseDuration. Bare numbers are
// read as seconds.
func (s *Snapshot) Duration(key string, def time.Duration) time.Duration {
	switch t := s.values[key].(type) {
	case float64:
		return time.Duration(t * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(t)); err == nil {
			return d
		}
	}
	return def
}
