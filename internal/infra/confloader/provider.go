package confloader

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/v2"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: ReadBytes not supported by map provider, use Read() instead")

// mapProvider is a koanf provider backed by an in-memory map.
type mapProvider map[string]any

// ReadBytes is not supported; koanf uses Read when no parser is given.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the map.
func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}

// Decode unmarshals data into target using koanf struct tags. Field names
// match keys case-insensitively, and strings are converted to numbers, bools
// and durations where the target field asks for them.
func Decode(data map[string]any, target any) error {
	k := koanf.New(".")
	if err := k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	if err := k.UnmarshalWithConf("", target, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
