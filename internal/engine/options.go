package engine

import (
	"time"

	"github.com/yndnr/confmesh/internal/precedence"
	"github.com/yndnr/confmesh/internal/retry"
	"github.com/yndnr/confmesh/internal/schema"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
	"github.com/yndnr/confmesh/internal/telemetry/metric"
)

// DefaultProbeTimeout bounds each availability probe.
const DefaultProbeTimeout = 5 * time.Second

// Option configures an Engine.
type Option func(*Engine)

// WithSchema validates every loaded or restored snapshot.
func WithSchema(s schema.Schema) Option {
	return func(e *Engine) {
		e.schema = s
	}
}

// WithPrecedence sets the precedence spec. Defaults to aws-first.
func WithPrecedence(spec precedence.Spec) Option {
	return func(e *Engine) {
		e.spec = spec
	}
}

// WithValidateOnLoad toggles schema validation. Defaults to true.
func WithValidateOnLoad(v bool) Option {
	return func(e *Engine) {
		e.validateOnLoad = v
	}
}

// WithRetryPolicy sets the policy for remote sources.
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithProbeTimeout bounds each availability probe. Zero disables the bound.
func WithProbeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.probeTimeout = d
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records load metrics. A nil registry disables metrics.
func WithMetrics(m *metric.Registry) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
