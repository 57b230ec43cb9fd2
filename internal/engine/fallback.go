package engine

import (
	"context"
	"errors"

	"go.uber.org/multierr"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// Mode tells which path of a FallbackLoader produced the configuration.
type Mode string

const (
	ModePrimary   Mode = "primary"
	ModeSecondary Mode = "secondary"
	ModeSnapshot  Mode = "snapshot"
)

// SnapshotStore keeps last-known-good serialized snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, data []byte, result *domain.LoadResult) error
	LatestSnapshot(ctx context.Context) ([]byte, error)
}

// Outcome is the result of a FallbackLoader run.
type Outcome struct {
	Mode   Mode
	Engine *Engine
	Result *domain.LoadResult
}

// FallbackLoader loads a primary engine and, when a remote service fails,
// falls back to a secondary engine over a reduced source set and then to the
// last stored snapshot.
type FallbackLoader struct {
	primary   *Engine
	secondary *Engine
	store     SnapshotStore
	log       logger.Logger
}

// FallbackOption configures a FallbackLoader.
type FallbackOption func(*FallbackLoader)

// WithSecondary sets the engine used when the primary hits a service error.
func WithSecondary(e *Engine) FallbackOption {
	return func(f *FallbackLoader) {
		f.secondary = e
	}
}

// WithSnapshotStore saves successful primary loads and restores from the
// latest snapshot as a last resort.
func WithSnapshotStore(s SnapshotStore) FallbackOption {
	return func(f *FallbackLoader) {
		f.store = s
	}
}

// WithFallbackLogger sets the logger.
func WithFallbackLogger(l logger.Logger) FallbackOption {
	return func(f *FallbackLoader) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFallbackLoader wraps primary.
func NewFallbackLoader(primary *Engine, opts ...FallbackOption) *FallbackLoader {
	f := &FallbackLoader{primary: primary, log: logger.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load runs the primary engine. Errors other than SourceServiceError are
// returned as is. Otherwise the secondary engine and then the snapshot store
// are tried; if every path fails the combined error is returned.
func (f *FallbackLoader) Load(ctx context.Context) (*domain.LoadResult, error) {
	out, err := f.Run(ctx)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Run is Load with the serving engine and mode reported.
func (f *FallbackLoader) Run(ctx context.Context) (*Outcome, error) {
	result, err := f.primary.Load(ctx)
	if err == nil {
		f.save(ctx, result)
		return &Outcome{Mode: ModePrimary, Engine: f.primary, Result: result}, nil
	}

	var svc *domain.SourceServiceError
	if !errors.As(err, &svc) {
		return nil, err
	}
	f.log.Warn("remote source failed, falling back",
		"service", svc.Service, "operation", svc.Operation, "error", err)
	errs := err

	if f.secondary != nil {
		result, err := f.secondary.Load(ctx)
		if err == nil {
			return &Outcome{Mode: ModeSecondary, Engine: f.secondary, Result: result}, nil
		}
		errs = multierr.Append(errs, err)
	}

	if f.store != nil {
		out, err := f.restore(ctx)
		if err == nil {
			return out, nil
		}
		errs = multierr.Append(errs, err)
	}

	return nil, errs
}

func (f *FallbackLoader) save(ctx context.Context, result *domain.LoadResult) {
	if f.store == nil {
		return
	}
	data, err := f.primary.Serialize()
	if err == nil {
		err = f.store.SaveSnapshot(ctx, data, result)
	}
	if err != nil {
		f.log.Warn("failed to save configuration snapshot", "error", err)
	}
}

func (f *FallbackLoader) restore(ctx context.Context) (*Outcome, error) {
	data, err := f.store.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.primary.Deserialize(data); err != nil {
		return nil, err
	}
	result, err := f.primary.LastResult()
	if err != nil {
		return nil, err
	}
	f.log.Warn("serving last known good configuration snapshot", "keys", len(result.Config))
	return &Outcome{Mode: ModeSnapshot, Engine: f.primary, Result: result}, nil
}
