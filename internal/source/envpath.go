package source

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yndnr/confmesh/internal/core/domain"
)

// LocalEnvironment is the runtime environment used when nothing else is set.
// Secret and parameter sources are skipped in it.
const LocalEnvironment = "local"

// Default environment variables consulted by EnvironmentResolver.
const (
	DefaultPrimaryVar   = "APP_ENV"
	DefaultSecondaryVar = "ENVIRONMENT"
)

// DefaultEnvironmentMapping maps logical environment names to path prefixes.
func DefaultEnvironmentMapping() map[string]string {
	return map[string]string{
		"development": "dev",
		"test":        "test",
		"staging":     "staging",
		"production":  "prod",
	}
}

// EnvironmentResolver determines the runtime environment name: Override, else
// PrimaryVar, else SecondaryVar, else LocalEnvironment.
type EnvironmentResolver struct {
	Override     string
	PrimaryVar   string
	SecondaryVar string

	// Lookup reads a variable. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// DefaultEnvironmentResolver reads APP_ENV, then ENVIRONMENT.
func DefaultEnvironmentResolver() EnvironmentResolver {
	return EnvironmentResolver{
		PrimaryVar:   DefaultPrimaryVar,
		SecondaryVar: DefaultSecondaryVar,
	}
}

// Resolve returns the runtime environment name.
func (r EnvironmentResolver) Resolve() string {
	if r.Override != "" {
		return r.Override
	}
	lookup := r.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range []string{r.PrimaryVar, r.SecondaryVar} {
		if name == "" {
			continue
		}
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
	}
	return LocalEnvironment
}

// PathBuilder builds environment specific resource paths.
type PathBuilder struct {
	// Mapping is environment name -> path prefix segment.
	Mapping map[string]string
	// Base is appended unmodified to the prefix.
	Base string
	// Source names the adapter in errors.
	Source string
}

// Build returns "/" + Mapping[env] + Base. An environment without a mapping
// entry is a configuration error listing the known environments.
func (b PathBuilder) Build(env string) (string, error) {
	prefix, ok := b.Mapping[env]
	if !ok {
		known := make([]string, 0, len(b.Mapping))
		for k := range b.Mapping {
			known = append(known, k)
		}
		sort.Strings(known)

		source := b.Source
		if source == "" {
			source = "environment-mapping"
		}
		return "", domain.NewSourceLoadError(source,
			fmt.Sprintf("no path prefix for environment %q (available: %s)", env, strings.Join(known, ", ")), nil)
	}
	return "/" + prefix + b.Base, nil
}
