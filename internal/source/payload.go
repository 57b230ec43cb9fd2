package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/pkg/envfile"
)

// Format selects how object content is decoded.
type Format string

const (
	// FormatAuto decodes JSON when the content starts with '{', else KEY=VALUE.
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatEnv  Format = "env"
)

// ParseFormat validates a format name. Empty means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSON, FormatEnv:
		return f, nil
	default:
		return "", fmt.Errorf("unknown object format %q (want auto, json or env)", s)
	}
}

// decodeContent turns object content into a mapping.
func decodeContent(source, text string, format Format) (domain.ConfigMap, error) {
	switch format {
	case FormatEnv:
		return domain.FromStrings(envfile.Parse(text)), nil
	case FormatJSON:
		return decodeJSON(source, text)
	default:
		if strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "{") {
			return decodeJSON(source, text)
		}
		return domain.FromStrings(envfile.Parse(text)), nil
	}
}

// decodeJSON parses JSON. Objects become the mapping; any other JSON value is
// wrapped under domain.SentinelKey.
func decodeJSON(source, text string) (domain.ConfigMap, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, domain.NewSourceLoadError(source, "invalid JSON content", err)
	}
	return wrapValue(v), nil
}

// decodeSecret is lenient: text that is not JSON is kept as a plain string.
func decodeSecret(text string) domain.ConfigMap {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return domain.ConfigMap{domain.SentinelKey: text}
	}
	return wrapValue(v)
}

func wrapValue(v any) domain.ConfigMap {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return domain.ConfigMap{domain.SentinelKey: v}
}
