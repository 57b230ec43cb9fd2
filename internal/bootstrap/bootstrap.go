package bootstrap

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/yndnr/confmesh/internal/config"
	"github.com/yndnr/confmesh/internal/engine"
	"github.com/yndnr/confmesh/internal/retry"
	"github.com/yndnr/confmesh/internal/schema"
	"github.com/yndnr/confmesh/internal/source"
	"github.com/yndnr/confmesh/internal/storage"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
	"github.com/yndnr/confmesh/internal/telemetry/metric"
)

// ClientFactory builds AWS clients. Tests replace it with mocks.
type ClientFactory func(ctx context.Context, opts source.AWSOptions) (*source.AWSClients, error)

// Options carries collaborators that are not part of Settings.
type Options struct {
	Schema  schema.Schema
	Metrics *metric.Registry
	Logger  logger.Logger

	// Clients defaults to source.NewAWSClients.
	Clients ClientFactory

	// FileSystem, Environ and Lookup replace OS access in tests.
	FileSystem source.FileSystem
	Environ    func() []string
	Lookup     func(string) (string, bool)
}

// App is a fully wired confmesh instance.
type App struct {
	Settings    *config.Settings
	Environment string

	Engine   *engine.Engine
	Fallback *engine.FallbackLoader
	Reloader *engine.Reloader

	// Store is nil unless store.enabled is set.
	Store *storage.Store

	log logger.Logger
}

// Build wires an App from s. The returned App owns the store; call Close.
func Build(ctx context.Context, s *config.Settings, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Clients == nil {
		opts.Clients = source.NewAWSClients
	}

	spec, err := s.PrecedenceSpec()
	if err != nil {
		return nil, err
	}

	resolver := source.EnvironmentResolver{
		Override:     s.Runtime.Environment,
		PrimaryVar:   s.Runtime.PrimaryVar,
		SecondaryVar: s.Runtime.SecondaryVar,
		Lookup:       opts.Lookup,
	}

	sources, err := buildSources(ctx, s, opts, resolver)
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithPrecedence(spec),
		engine.WithSchema(opts.Schema),
		engine.WithValidateOnLoad(s.Runtime.ValidateOnLoad),
		engine.WithRetryPolicy(retryPolicy(s.Retry)),
		engine.WithProbeTimeout(s.Runtime.ProbeTimeout),
		engine.WithLogger(opts.Logger),
		engine.WithMetrics(opts.Metrics),
	}

	app := &App{
		Settings:    s,
		Environment: resolver.Resolve(),
		Engine:      engine.New(sources, engineOpts...),
		log:         opts.Logger,
	}

	fallbackOpts := []engine.FallbackOption{engine.WithFallbackLogger(opts.Logger)}
	if s.Fallback.Enabled {
		reduced := reduce(sources, s.Fallback.Sources)
		fallbackOpts = append(fallbackOpts, engine.WithSecondary(engine.New(reduced, engineOpts...)))
	}

	if s.Store.Enabled {
		store, err := OpenStore(s.Store, opts.Logger)
		if err != nil {
			return nil, err
		}
		app.Store = store
		if opts.Metrics != nil {
			if err := opts.Metrics.Register(store.Collector()); err != nil {
				opts.Logger.Warn("snapshot store metrics not registered", "error", err)
			}
		}
		if s.Fallback.Enabled {
			fallbackOpts = append(fallbackOpts, engine.WithSnapshotStore(store))
		}
	}

	app.Fallback = engine.NewFallbackLoader(app.Engine, fallbackOpts...)
	app.Reloader = engine.NewReloader(app.Fallback, opts.Logger)
	return app, nil
}

// Load runs the fallback loader and checks the required keys on the engine
// that ends up serving.
func (a *App) Load(ctx context.Context) (*engine.Outcome, error) {
	out, err := a.Fallback.Run(ctx)
	if err != nil {
		return nil, err
	}
	if out.Mode != engine.ModePrimary {
		a.log.Warn("configuration served by fallback", "mode", string(out.Mode))
	}
	if err := out.Engine.Require(a.Settings.Runtime.Require...); err != nil {
		return out, err
	}
	return out, nil
}

// AutoSaves reports whether successful loads are saved to the store by the
// fallback loader.
func (a *App) AutoSaves() bool {
	return a.Store != nil && a.Settings.Fallback.Enabled
}

// Close releases the snapshot store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// OpenStore opens the snapshot store described by s whether or not it is
// enabled for loads.
func OpenStore(s config.StoreSection, log logger.Logger) (*storage.Store, error) {
	cfg := storage.DefaultConfig(s.Dir)
	if s.InMemory {
		cfg = storage.MemoryConfig()
	}
	cfg.Retain = s.Retain
	return storage.Open(cfg, log)
}

func retryPolicy(r config.RetrySection) retry.Policy {
	p := retry.DefaultPolicy()
	if r.MaxAttempts > 0 {
		p.MaxAttempts = r.MaxAttempts
	}
	if r.BaseDelay > 0 {
		p.BaseDelay = r.BaseDelay
	}
	if r.MaxDelay > 0 {
		p.MaxDelay = r.MaxDelay
	}
	return p
}

// reduce keeps the sources whose kind is listed.
func reduce(sources []source.Source, kinds []string) []source.Source {
	if len(kinds) == 0 {
		kinds = config.DefaultFallbackSources
	}
	var out []source.Source
	for _, src := range sources {
		if slices.Contains(kinds, string(src.Kind())) {
			out = append(out, src)
		}
	}
	return out
}

func buildSources(ctx context.Context, s *config.Settings, opts Options, resolver source.EnvironmentResolver) ([]source.Source, error) {
	base := []source.Option{
		source.WithLogger(opts.Logger),
		source.WithEnvironmentResolver(resolver),
	}
	if opts.FileSystem != nil {
		base = append(base, source.WithFileSystem(opts.FileSystem))
	}
	if opts.Environ != nil {
		base = append(base, source.WithEnviron(opts.Environ))
	}

	var (
		out  []source.Source
		errs error
	)

	if c := s.Sources.Environment; c.Enabled {
		out = append(out, source.NewEnvironment(source.EnvironmentConfig{Prefix: c.Prefix, Exclude: c.Exclude}, base...))
	}

	if c := s.Sources.LocalFile; c.Enabled {
		lf, err := source.NewLocalFile(source.LocalFileConfig{
			Paths:    c.Paths,
			Encoding: c.Encoding,
			Override: c.Override,
		}, base...)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sources.local_file: %w", err))
		} else {
			out = append(out, lf)
		}
	}

	clients := &clientCache{factory: opts.Clients, base: awsOptions(s.AWS), byRegion: map[string]*source.AWSClients{}}

	if c := s.Sources.ObjectStore; c.Enabled {
		cl, err := clients.get(ctx, c.Region)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sources.object_store: %w", err))
		} else {
			out = append(out, source.NewObjectStore(source.ObjectStoreConfig{
				Bucket: c.Bucket,
				Key:    c.Key,
				Region: cl.Region,
				Format: source.Format(c.Format),
			}, cl.Objects, cl.Credentials, base...))
		}
	}

	if c := s.Sources.SecretsVault; c.Enabled {
		cl, err := clients.get(ctx, c.Region)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sources.secrets_vault: %w", err))
		} else {
			out = append(out, source.NewSecretsVault(source.SecretsVaultConfig{
				SecretName:         c.SecretName,
				Region:             cl.Region,
				EnvironmentMapping: c.EnvironmentMapping,
			}, cl.Secrets, cl.Credentials, base...))
		}
	}

	if c := s.Sources.ParameterStore; c.Enabled {
		cl, err := clients.get(ctx, c.Region)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sources.parameter_store: %w", err))
		} else {
			popts := base
			if c.RateLimit > 0 {
				burst := c.Burst
				if burst < 1 {
					burst = 1
				}
				popts = append(slices.Clone(base), source.WithLimiter(rate.NewLimiter(rate.Limit(c.RateLimit), burst)))
			}
			out = append(out, source.NewParameterStore(source.ParameterStoreConfig{
				ParameterPath:      c.ParameterPath,
				Region:             cl.Region,
				EnvironmentMapping: c.EnvironmentMapping,
				WithDecryption:     c.WithDecryption,
			}, cl.Parameters, cl.Credentials, popts...))
		}
	}

	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func awsOptions(a config.AWSSection) source.AWSOptions {
	return source.AWSOptions{
		Region:          a.Region,
		Profile:         a.Profile,
		Endpoint:        a.Endpoint,
		AccessKeyID:     a.AccessKeyID,
		SecretAccessKey: a.SecretAccessKey,
		SessionToken:    a.SessionToken,
		CAFile:          a.CAFile,
		CADir:           a.CADir,
	}
}

// clientCache builds one set of AWS clients per region.
type clientCache struct {
	factory  ClientFactory
	base     source.AWSOptions
	byRegion map[string]*source.AWSClients
}

func (c *clientCache) get(ctx context.Context, region string) (*source.AWSClients, error) {
	if region == "" {
		region = c.base.Region
	}
	if cl, ok := c.byRegion[region]; ok {
		return cl, nil
	}
	opts := c.base
	opts.Region = region
	cl, err := c.factory(ctx, opts)
	if err != nil {
		return nil, err
	}
	c.byRegion[region] = cl
	return cl, nil
}
