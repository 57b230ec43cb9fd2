package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/yndnr/confmesh/pkg/envfile"
)

// EnvFormatter writes a flat mapping as KEY=VALUE lines. Nested values are
// written as compact JSON; keys that are not valid variable names are
// dropped.
type EnvFormatter struct{}

// Format writes data, which must be a map[string]any or map[string]string.
func (f *EnvFormatter) Format(w io.Writer, data any) error {
	var flat map[string]string
	switch m := data.(type) {
	case map[string]string:
		flat = m
	case map[string]any:
		flat = make(map[string]string, len(m))
		for k, v := range m {
			s, err := envValue(v)
			if err != nil {
				return fmt.Errorf("encode %s: %w", k, err)
			}
			flat[k] = s
		}
	default:
		return fmt.Errorf("env output needs a key/value mapping, got %T", data)
	}
	_, err := io.WriteString(w, envfile.Serialize(flat))
	return err
}

func envValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		data, err := json.Marshal(t)
		return string(data), err
	}
}
