package source

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/time/rate"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/retry"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// DefaultParameterPath is the base parameter path.
const DefaultParameterPath = "/app/config"

// ParameterStoreConfig configures the parameter store source.
type ParameterStoreConfig struct {
	ParameterPath string `koanf:"parameter_path"`
	Region        string `koanf:"region"`
	// EnvironmentMapping maps environment names to path prefixes. Defaults to
	// DefaultEnvironmentMapping.
	EnvironmentMapping map[string]string `koanf:"environment_mapping"`
	// WithDecryption decrypts SecureString parameters. Defaults to true.
	WithDecryption *bool `koanf:"with_decryption"`
}

// ParameterStore reads an SSM parameter hierarchy.
type ParameterStore struct {
	client  ParameterLister
	creds   aws.CredentialsProvider
	decrypt bool
	env     string
	path    string
	pathErr error
	limiter *rate.Limiter
	log     logger.Logger
}

// NewParameterStore creates a parameter store source. The path is resolved
// once, from the runtime environment.
func NewParameterStore(cfg ParameterStoreConfig, client ParameterLister, creds aws.CredentialsProvider, opts ...Option) *ParameterStore {
	o := buildOptions(opts)
	if cfg.ParameterPath == "" {
		cfg.ParameterPath = DefaultParameterPath
	}
	if cfg.EnvironmentMapping == nil {
		cfg.EnvironmentMapping = DefaultEnvironmentMapping()
	}
	decrypt := true
	if cfg.WithDecryption != nil {
		decrypt = *cfg.WithDecryption
	}

	p := &ParameterStore{
		client:  client,
		creds:   creds,
		decrypt: decrypt,
		env:     o.resolver.Resolve(),
		limiter: o.limiter,
	}
	p.path, p.pathErr = PathBuilder{
		Mapping: cfg.EnvironmentMapping,
		Base:    cfg.ParameterPath,
		Source:  string(domain.SourceParameterStore),
	}.Build(p.env)
	p.log = o.logger.With("source", p.Name(), "environment", p.env)
	return p
}

// Name implements Source, e.g. "parameter-store:/prod/app/config".
func (p *ParameterStore) Name() string {
	if p.pathErr != nil {
		return string(domain.SourceParameterStore)
	}
	return string(domain.SourceParameterStore) + ":" + p.path
}

// Kind implements Source.
func (p *ParameterStore) Kind() domain.SourceKind { return domain.SourceParameterStore }

// Remote implements Remote.
func (p *ParameterStore) Remote() bool { return true }

// Path returns the resolved parameter path.
func (p *ParameterStore) Path() (string, error) { return p.path, p.pathErr }

// Available implements Source. It is false in the local environment.
func (p *ParameterStore) Available(ctx context.Context) bool {
	if p.env == LocalEnvironment {
		p.log.Debug("local environment, skipping parameter store")
		return false
	}
	if p.client == nil {
		return false
	}
	return credentialsAvailable(ctx, p.creds)
}

// Fetch implements Source. It walks every page under the path. A missing
// path yields an empty map.
func (p *ParameterStore) Fetch(ctx context.Context) (domain.ConfigMap, error) {
	if p.pathErr != nil {
		return nil, p.pathErr
	}

	pager := ssm.NewGetParametersByPathPaginator(p.client, &ssm.GetParametersByPathInput{
		Path:           aws.String(p.path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(p.decrypt),
	})

	out := make(domain.ConfigMap)
	pages := 0
	for pager.HasMorePages() {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		page, err := pager.NextPage(ctx)
		if err != nil {
			if retry.IsNotFound(err) {
				p.log.Debug("parameter path not found")
				return domain.ConfigMap{}, nil
			}
			return nil, domain.NewSourceServiceError(domain.ServiceParameterStore, "GetParametersByPath", err)
		}
		pages++

		for _, param := range page.Parameters {
			if aws.ToString(param.Value) == "" {
				continue
			}
			key := ParameterKey(p.path, aws.ToString(param.Name))
			if key == "" {
				continue
			}
			out[key] = aws.ToString(param.Value)
		}
	}

	p.log.Debug("parameters fetched", "pages", pages, "count", len(out))
	return out, nil
}

// ParameterKey derives a config key from a parameter name: the path prefix and
// a leading slash are removed, slashes become underscores, and the result is
// upper-cased. "/prod/app/db/host" under "/prod/app" becomes "DB_HOST".
func ParameterKey(path, name string) string {
	key := strings.TrimPrefix(name, path)
	key = strings.TrimPrefix(key, "/")
	key = strings.ReplaceAll(key, "/", "_")
	return strings.ToUpper(key)
}
