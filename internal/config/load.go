package config

import (
	"fmt"

	"github.com/yndnr/confmesh/internal/infra/confloader"
)

// secretSettings are dotted keys whose values Explicit masks.
var secretSettings = map[string]bool{
	"aws.secret_access_key": true,
	"aws.session_token":     true,
}

// Load layers defaults, the settings file at path (optional), CONFMESH_
// environment variables and dotted-key overrides, then verifies the result.
func Load(path string, overrides map[string]any) (*Settings, error) {
	s := Default()
	if _, err := load(path, overrides, s); err != nil {
		return nil, err
	}
	if err := Verify(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Explicit returns the settings set by the file, CONFMESH_ environment
// variables or overrides, keyed by dotted name. Settings left at their
// defaults are absent. Credentials are masked.
func Explicit(path string, overrides map[string]any) (map[string]string, error) {
	loader, err := load(path, overrides, Default())
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for key := range loader.All() {
		v := loader.GetString(key)
		if secretSettings[key] {
			v = maskSecret(v)
		}
		out[key] = v
	}
	return out, nil
}

func load(path string, overrides map[string]any, target *Settings) (*confloader.Loader, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(target); err != nil {
		return nil, err
	}
	return loader, nil
}
