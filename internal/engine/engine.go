package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/precedence"
	"github.com/yndnr/confmesh/internal/retry"
	"github.com/yndnr/confmesh/internal/schema"
	"github.com/yndnr/confmesh/internal/source"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
	"github.com/yndnr/confmesh/internal/telemetry/metric"
)

// Engine loads, merges and serves configuration from a fixed set of sources.
type Engine struct {
	sources        []source.Source
	spec           precedence.Spec
	resolver       *precedence.Resolver
	schema         schema.Schema
	validateOnLoad bool
	policy         retry.Policy
	probeTimeout   time.Duration
	log            logger.Logger
	metrics        *metric.Registry
	now            func() time.Time

	state atomic.Pointer[state]
}

// state is swapped as a whole on every successful load or restore.
type state struct {
	snapshot *Snapshot
	result   *domain.LoadResult
}

// New creates an Engine in the Unloaded state.
func New(sources []source.Source, opts ...Option) *Engine {
	e := &Engine{
		sources:        append([]source.Source(nil), sources...),
		spec:           precedence.Named(precedence.DefaultStrategy),
		validateOnLoad: true,
		policy:         retry.DefaultPolicy(),
		probeTimeout:   DefaultProbeTimeout,
		log:            logger.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.resolver = precedence.NewResolver(e.spec, precedence.WithUnknownHook(func(d domain.Descriptor) {
		e.log.Warn("source missing from explicit precedence list, using priority 0",
			"source", d.Name, "kind", string(d.Kind))
	}))
	return e
}

// Restore builds a Loaded engine from a serialized snapshot without
// consulting any source.
func Restore(data []byte, opts ...Option) (*Engine, error) {
	e := New(nil, opts...)
	if err := e.Deserialize(data); err != nil {
		return nil, err
	}
	return e, nil
}

// Precedence returns the precedence spec in use.
func (e *Engine) Precedence() precedence.Spec {
	return e.spec
}

// Sources returns the source descriptors in load order.
func (e *Engine) Sources() []domain.Descriptor {
	descs := e.describe()
	out := make([]domain.Descriptor, 0, len(descs))
	for _, i := range e.resolver.Order(descs) {
		out = append(out, descs[i])
	}
	return out
}

func (e *Engine) describe() []domain.Descriptor {
	descs := make([]domain.Descriptor, len(e.sources))
	for i, s := range e.sources {
		descs[i] = source.Describe(s)
	}
	return descs
}

// Load runs one load cycle. On success the merged snapshot is installed and
// returned; on failure the engine keeps its previous state.
func (e *Engine) Load(ctx context.Context) (*domain.LoadResult, error) {
	start := e.now()
	loadID := ulid.Make().String()
	ctx = logger.WithLogger(logger.WithLoadID(ctx, loadID), e.log)
	log := logger.L(ctx)

	result, err := e.load(ctx, log)
	duration := e.now().Sub(start)
	if err != nil {
		e.metrics.ObserveLoad(metric.ResultFailure, duration)
		log.Error("configuration load failed", "error", err, "duration", duration)
		return nil, err
	}

	e.metrics.ObserveLoad(metric.ResultSuccess, duration)
	e.metrics.SetConfigKeys(len(result.Config))
	log.Info("configuration loaded",
		"sources", len(result.Contributing()),
		"keys", len(result.Config),
		"overrides", len(result.Overrides),
		"duration", duration,
	)
	return result, nil
}

func (e *Engine) load(ctx context.Context, log logger.Logger) (*domain.LoadResult, error) {
	descs := e.describe()
	order := e.resolver.Order(descs)

	entries := make([]precedence.Entry, 0, len(order))
	summaries := make([]domain.SourceSummary, 0, len(order))

	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewConfigurationError("load cancelled", err)
		}

		src, desc := e.sources[i], descs[i]
		if !e.available(ctx, src, log) {
			log.Debug("source unavailable, skipping", "source", desc.Name)
			e.metrics.SourceSkipped(desc.Name)
			summaries = append(summaries, domain.SourceSummary{Name: desc.Name, Kind: desc.Kind, Skipped: true})
			continue
		}

		fetchStart := e.now()
		values, attempts, err := e.fetch(ctx, src, log)
		elapsed := e.now().Sub(fetchStart)
		e.metrics.ObserveFetch(desc.Name, elapsed)
		if err != nil {
			return nil, wrapFetchError(desc.Name, err)
		}
		if values == nil {
			values = domain.ConfigMap{}
		}

		log.Debug("source fetched", "source", desc.Name, "keys", len(values), "attempts", attempts)
		entries = append(entries, precedence.Entry{Source: desc, Values: values})
		summaries = append(summaries, domain.SourceSummary{
			Name:     desc.Name,
			Kind:     desc.Kind,
			Keys:     len(values),
			Duration: elapsed,
			Attempts: attempts,
		})
	}

	merged := e.resolver.Merge(entries)
	for _, o := range merged.Overrides {
		log.Debug("value overridden", "field", o.Key, "from", o.From, "to", o.To)
	}

	snap := NewSnapshot(merged.Values)
	if err := e.validate(snap.values); err != nil {
		return nil, err
	}

	result := &domain.LoadResult{
		Config:      snap.All(),
		Sources:     summaries,
		LoadedAt:    e.now(),
		Provenance:  merged.Provenance,
		Overrides:   merged.Overrides,
		Fingerprint: snap.Fingerprint(),
	}
	e.state.Store(&state{snapshot: snap, result: result})
	return result, nil
}

// available probes src, bounded by the probe timeout. A probe that does not
// return in time counts as unavailable.
func (e *Engine) available(ctx context.Context, src source.Source, log logger.Logger) bool {
	if e.probeTimeout <= 0 {
		return src.Available(ctx)
	}

	pctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		done <- src.Available(pctx)
	}()

	select {
	case ok := <-done:
		return ok
	case <-pctx.Done():
		log.Warn("availability probe timed out", "source", src.Name(), "timeout", e.probeTimeout)
		return false
	}
}

// fetch calls src.Fetch, through the retry layer for remote sources.
func (e *Engine) fetch(ctx context.Context, src source.Source, log logger.Logger) (domain.ConfigMap, int, error) {
	name := src.Name()
	attempts := 0
	call := func(ctx context.Context) (domain.ConfigMap, error) {
		attempts++
		values, err := src.Fetch(ctx)
		if err != nil {
			e.metrics.SourceError(name, retry.Classify(err).String())
		}
		return values, err
	}

	if !source.IsRemote(src) {
		values, err := call(ctx)
		return values, attempts, err
	}

	p := e.policy
	hook := p.OnRetry
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		e.metrics.SourceRetry(name)
		log.Warn("source fetch failed, retrying",
			"source", name, "attempt", attempt, "delay", delay, "error", err)
		if hook != nil {
			hook(attempt, delay, err)
		}
	}
	values, err := retry.Do(ctx, p, call)
	return values, attempts, err
}

// wrapFetchError names the failing source. Errors that already carry a
// source name pass through.
func wrapFetchError(name string, err error) error {
	var sle *domain.SourceLoadError
	if errors.As(err, &sle) {
		return err
	}
	return domain.NewSourceLoadError(name, "fetch failed", err)
}

func (e *Engine) validate(values domain.ConfigMap) error {
	if !e.validateOnLoad || e.schema == nil {
		return nil
	}
	err := e.schema.Validate(values)
	if err == nil {
		return nil
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return domain.NewValidationError(nil, err)
}

func (e *Engine) current() (*state, error) {
	st := e.state.Load()
	if st == nil {
		return nil, domain.ErrNotLoaded
	}
	return st, nil
}

// Loaded reports whether a snapshot is installed.
func (e *Engine) Loaded() bool {
	return e.state.Load() != nil
}

// Snapshot returns the installed snapshot.
func (e *Engine) Snapshot() (*Snapshot, error) {
	st, err := e.current()
	if err != nil {
		return nil, err
	}
	return st.snapshot, nil
}

// LastResult returns the result of the load or restore that installed the
// current snapshot.
func (e *Engine) LastResult() (*domain.LoadResult, error) {
	st, err := e.current()
	if err != nil {
		return nil, err
	}
	return st.result, nil
}

// Get returns the value of key. An absent key yields (nil, nil).
func (e *Engine) Get(key string) (any, error) {
	v, _, err := e.Lookup(key)
	return v, err
}

// Lookup returns the value of key and whether it is present.
func (e *Engine) Lookup(key string) (any, bool, error) {
	st, err := e.current()
	if err != nil {
		return nil, false, err
	}
	v, ok := st.snapshot.Get(key)
	return v, ok, nil
}

// GetAll returns a deep copy of the installed configuration.
func (e *Engine) GetAll() (domain.ConfigMap, error) {
	st, err := e.current()
	if err != nil {
		return nil, err
	}
	return st.snapshot.All(), nil
}

// Require fails with a MissingKeysError listing every key that is absent or
// null.
func (e *Engine) Require(keys ...string) error {
	st, err := e.current()
	if err != nil {
		return err
	}
	var missing []string
	for _, k := range keys {
		if v, ok := st.snapshot.values[k]; !ok || v == nil {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return domain.NewMissingKeysError(missing)
	}
	return nil
}

// Serialize encodes the installed snapshot as a JSON object with no
// envelope.
func (e *Engine) Serialize() ([]byte, error) {
	st, err := e.current()
	if err != nil {
		return nil, err
	}
	return json.Marshal(st.snapshot.values)
}

// Deserialize installs a snapshot decoded from data. No source is consulted.
// The schema is applied when validation on load is enabled.
func (e *Engine) Deserialize(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return domain.NewConfigurationError("decode snapshot", err)
	}
	if values == nil {
		return domain.NewConfigurationError("decode snapshot: not a JSON object", nil)
	}

	snap := NewSnapshot(values)
	if err := e.validate(snap.values); err != nil {
		return err
	}

	e.state.Store(&state{
		snapshot: snap,
		result: &domain.LoadResult{
			Config:      snap.All(),
			LoadedAt:    e.now(),
			Fingerprint: snap.Fingerprint(),
		},
	})
	e.metrics.SetConfigKeys(snap.Len())
	e.log.Info("configuration restored from snapshot", "keys", snap.Len())
	return nil
}
