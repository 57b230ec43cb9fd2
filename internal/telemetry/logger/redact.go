package logger

import (
	"log/slog"
	"strings"
)

// AWS access key ID prefixes (long-term and temporary credentials).
var sensitiveValuePrefixes = []string{
	"AKIA",
	"ASIA",
}

var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
	"private",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		for _, prefix := range sensitiveValuePrefixes {
			if strings.HasPrefix(strVal, prefix) {
				return slog.String(a.Key, maskValue(strVal, prefix))
			}
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	return a
}

// maskValue keeps the prefix and the last four characters.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 8 {
		return prefix + "***"
	}
	return prefix + "***" + body[len(body)-4:]
}

// RedactString masks value if it looks like an access key ID.
func RedactString(value string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix)
		}
	}
	return value
}

// IsSensitiveKey reports whether a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value looks like an access key ID.
func IsSensitiveValue(value string) bool {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// RedactMap returns a copy of m with the values of sensitive keys replaced.
// Nested maps are walked; a sensitive key hides its whole subtree.
func RedactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if IsSensitiveKey(k) && v != nil {
			out[k] = redactedValue
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			out[k] = RedactMap(t)
		case string:
			out[k] = RedactString(t)
		default:
			out[k] = v
		}
	}
	return out
}
