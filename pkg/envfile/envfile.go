package envfile

import (
	"regexp"
	"sort"
	"strings"
)

// MaxLineLength is the longest line, in bytes, that Parse accepts.
const MaxLineLength = 32 * 1024

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidKey reports whether key is an acceptable entry name.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Parse converts KEY=VALUE text into a mapping. Later occurrences of a key
// overwrite earlier ones. Invalid lines are skipped, never reported.
func Parse(text string) map[string]string {
	out := make(map[string]string)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if len(line) > MaxLineLength {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		if !ValidKey(key) {
			continue
		}
		out[key] = line[idx+1:]
	}

	return out
}

// Serialize renders m as KEY=VALUE lines in sorted key order. Entries whose
// key fails ValidKey are omitted.
func Serialize(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if ValidKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(m[k])
		sb.WriteByte('\n')
	}
	return sb.String()
}
