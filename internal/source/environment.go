package source

import (
	"context"
	"os"
	"strings"

	"github.com/yndnr/confmesh/internal/core/domain"
)

// EnvironmentConfig configures the process environment source.
type EnvironmentConfig struct {
	// Prefix keeps only variables starting with it and strips it.
	Prefix string `koanf:"prefix"`
	// Exclude lists original variable names to drop.
	Exclude []string `koanf:"exclude"`
}

// Environment reads the process environment.
type Environment struct {
	cfg     EnvironmentConfig
	exclude map[string]struct{}
	environ func() []string
}

var defaultEnviron = os.Environ

// NewEnvironment creates an environment source.
func NewEnvironment(cfg EnvironmentConfig, opts ...Option) *Environment {
	o := buildOptions(opts)
	exclude := make(map[string]struct{}, len(cfg.Exclude))
	for _, k := range cfg.Exclude {
		exclude[k] = struct{}{}
	}
	return &Environment{cfg: cfg, exclude: exclude, environ: o.environ}
}

// Name implements Source.
func (e *Environment) Name() string { return string(domain.SourceEnvironment) }

// Kind implements Source.
func (e *Environment) Kind() domain.SourceKind { return domain.SourceEnvironment }

// Available implements Source. The environment is always available.
func (e *Environment) Available(context.Context) bool { return true }

// Fetch implements Source.
func (e *Environment) Fetch(context.Context) (domain.ConfigMap, error) {
	out := make(domain.ConfigMap)
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		if _, skip := e.exclude[name]; skip {
			continue
		}

		key := name
		if e.cfg.Prefix != "" {
			if !strings.HasPrefix(name, e.cfg.Prefix) {
				continue
			}
			key = strings.TrimPrefix(name, e.cfg.Prefix)
			if key == "" {
				continue
			}
		}
		out[key] = value
	}
	return out, nil
}
