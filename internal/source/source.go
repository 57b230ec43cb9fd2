package source

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// Source is one configuration source.
type Source interface {
	// Name is a stable identifier. It never fails.
	Name() string

	// Kind is the source variant.
	Kind() domain.SourceKind

	// Available reports whether Fetch should be attempted. It may perform I/O.
	Available(ctx context.Context) bool

	// Fetch returns a complete mapping or an error.
	Fetch(ctx context.Context) (domain.ConfigMap, error)
}

// Remote is implemented by sources backed by a network service. Their Fetch
// is wrapped with the retry layer.
type Remote interface {
	Remote() bool
}

// IsRemote reports whether s is backed by a network service.
func IsRemote(s Source) bool {
	r, ok := s.(Remote)
	return ok && r.Remote()
}

// Describe returns the descriptor of s.
func Describe(s Source) domain.Descriptor {
	return domain.Descriptor{Name: s.Name(), Kind: s.Kind()}
}

// Option configures the collaborators of an adapter.
type Option func(*options)

type options struct {
	logger   logger.Logger
	fs       FileSystem
	environ  func() []string
	resolver EnvironmentResolver
	limiter  *rate.Limiter
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   logger.Default(),
		fs:       OSFileSystem{},
		environ:  defaultEnviron,
		resolver: DefaultEnvironmentResolver(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the adapter logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFileSystem replaces the file system used by LocalFile.
func WithFileSystem(fs FileSystem) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithEnviron replaces the environment listing used by Environment.
func WithEnviron(fn func() []string) Option {
	return func(o *options) {
		if fn != nil {
			o.environ = fn
		}
	}
}

// WithEnvironmentResolver sets how SecretsVault and ParameterStore determine
// the runtime environment.
func WithEnvironmentResolver(r EnvironmentResolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithLimiter throttles remote page requests.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}
