package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/precedence"
	"github.com/yndnr/confmesh/internal/source"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// Verify checks the settings for consistency and reports every problem.
func Verify(s *Settings) error {
	return multierr.Combine(
		verifyRuntime(&s.Runtime),
		verifyLog(&s.Log),
		verifySources(&s.Sources),
		verifyRetry(&s.Retry),
		verifyFallback(&s.Fallback),
		verifyStore(&s.Store),
	)
}

func verifyRuntime(r *RuntimeSection) error {
	var err error
	if len(r.Precedence) == 0 {
		if _, perr := precedence.ParseStrategy(r.Strategy); perr != nil {
			err = multierr.Append(err, fmt.Errorf("runtime.strategy: %w", perr))
		}
	}
	for i, p := range r.Precedence {
		if p.Name == "" {
			err = multierr.Append(err, fmt.Errorf("runtime.precedence[%d]: name is required", i))
		}
	}
	if r.ProbeTimeout < 0 {
		err = multierr.Append(err, errors.New("runtime.probe_timeout must not be negative"))
	}
	return err
}

func verifyLog(l *LogSection) error {
	var err error
	if !logger.ValidLevel(l.Level) {
		err = multierr.Append(err, fmt.Errorf("log.level: unknown level %q", l.Level))
	}
	if l.Format != "json" && l.Format != "text" {
		err = multierr.Append(err, fmt.Errorf("log.format: must be json or text, got %q", l.Format))
	}
	return err
}

func verifySources(s *SourcesSection) error {
	var err error
	if obj := s.ObjectStore; obj.Enabled {
		if obj.Bucket == "" {
			err = multierr.Append(err, errors.New("sources.object_store.bucket is required"))
		}
		if obj.Key == "" {
			err = multierr.Append(err, errors.New("sources.object_store.key is required"))
		}
		if _, ferr := source.ParseFormat(obj.Format); ferr != nil {
			err = multierr.Append(err, fmt.Errorf("sources.object_store.format: %w", ferr))
		}
	}
	if ps := s.ParameterStore; ps.Enabled && ps.RateLimit < 0 {
		err = multierr.Append(err, errors.New("sources.parameter_store.rate_limit must not be negative"))
	}
	return err
}

func verifyRetry(r *RetrySection) error {
	var err error
	if r.MaxAttempts < 1 {
		err = multierr.Append(err, errors.New("retry.max_attempts must be at least 1"))
	}
	if r.BaseDelay < 0 || r.MaxDelay < 0 {
		err = multierr.Append(err, errors.New("retry delays must not be negative"))
	}
	return err
}

var knownKinds = map[string]bool{
	string(domain.SourceEnvironment):    true,
	string(domain.SourceLocalFile):      true,
	string(domain.SourceObjectStore):    true,
	string(domain.SourceSecretsVault):   true,
	string(domain.SourceParameterStore): true,
}

func verifyFallback(f *FallbackSection) error {
	var err error
	for _, k := range f.Sources {
		if !knownKinds[k] {
			err = multierr.Append(err, fmt.Errorf("fallback.sources: unknown source kind %q", k))
		}
	}
	return err
}

func verifyStore(s *StoreSection) error {
	if !s.Enabled {
		return nil
	}
	var err error
	if s.Dir == "" && !s.InMemory {
		err = multierr.Append(err, errors.New("store.dir is required unless store.in_memory is set"))
	}
	if s.Retain < 0 {
		err = multierr.Append(err, errors.New("store.retain must not be negative"))
	}
	return err
}

// PrecedenceSpec returns the precedence spec described by the settings.
func (s *Settings) PrecedenceSpec() (precedence.Spec, error) {
	if len(s.Runtime.Precedence) > 0 {
		return precedence.Explicit(s.Runtime.Precedence), nil
	}
	strategy, err := precedence.ParseStrategy(s.Runtime.Strategy)
	if err != nil {
		return precedence.Spec{}, err
	}
	return precedence.Named(strategy), nil
}
