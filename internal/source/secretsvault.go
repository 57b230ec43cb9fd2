package source

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/retry"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// DefaultSecretName is the base secret identifier.
const DefaultSecretName = "/app/secrets"

// SecretsVaultConfig configures the secrets vault source.
type SecretsVaultConfig struct {
	SecretName string `koanf:"secret_name"`
	Region     string `koanf:"region"`
	// EnvironmentMapping maps environment names to path prefixes. Defaults to
	// DefaultEnvironmentMapping.
	EnvironmentMapping map[string]string `koanf:"environment_mapping"`
}

// SecretsVault reads one secret from Secrets Manager.
type SecretsVault struct {
	client  SecretGetter
	creds   aws.CredentialsProvider
	env     string
	path    string
	pathErr error
	log     logger.Logger
}

// NewSecretsVault creates a secrets vault source. The secret path is resolved
// once, from the runtime environment.
func NewSecretsVault(cfg SecretsVaultConfig, client SecretGetter, creds aws.CredentialsProvider, opts ...Option) *SecretsVault {
	o := buildOptions(opts)
	if cfg.SecretName == "" {
		cfg.SecretName = DefaultSecretName
	}
	if cfg.EnvironmentMapping == nil {
		cfg.EnvironmentMapping = DefaultEnvironmentMapping()
	}

	s := &SecretsVault{client: client, creds: creds, env: o.resolver.Resolve()}
	s.path, s.pathErr = PathBuilder{
		Mapping: cfg.EnvironmentMapping,
		Base:    cfg.SecretName,
		Source:  string(domain.SourceSecretsVault),
	}.Build(s.env)
	s.log = o.logger.With("source", s.Name(), "environment", s.env)
	return s
}

// Name implements Source, e.g. "secrets-vault:/prod/app/secrets". It falls
// back to the kind when the path cannot be built.
func (s *SecretsVault) Name() string {
	if s.pathErr != nil {
		return string(domain.SourceSecretsVault)
	}
	return string(domain.SourceSecretsVault) + ":" + s.path
}

// Kind implements Source.
func (s *SecretsVault) Kind() domain.SourceKind { return domain.SourceSecretsVault }

// Remote implements Remote.
func (s *SecretsVault) Remote() bool { return true }

// Path returns the resolved secret path.
func (s *SecretsVault) Path() (string, error) { return s.path, s.pathErr }

// Available implements Source. It is false in the local environment.
func (s *SecretsVault) Available(ctx context.Context) bool {
	if s.env == LocalEnvironment {
		s.log.Debug("local environment, skipping secrets vault")
		return false
	}
	if s.client == nil {
		return false
	}
	return credentialsAvailable(ctx, s.creds)
}

// Fetch implements Source. A missing secret yields an empty map.
func (s *SecretsVault) Fetch(ctx context.Context) (domain.ConfigMap, error) {
	if s.pathErr != nil {
		return nil, s.pathErr
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.path),
	})
	if err != nil {
		if retry.IsNotFound(err) {
			s.log.Debug("secret not found")
			return domain.ConfigMap{}, nil
		}
		return nil, domain.NewSourceServiceError(domain.ServiceSecretsVault, "GetSecretValue", err)
	}

	switch {
	case out.SecretString != nil:
		return decodeSecret(*out.SecretString), nil
	case out.SecretBinary != nil:
		return decodeSecret(string(out.SecretBinary)), nil
	default:
		return domain.ConfigMap{}, nil
	}
}
