package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/yndnr/confmesh/internal/infra/tlsroots"
)

// ObjectGetter is the part of the S3 client used by ObjectStore.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// SecretGetter is the part of the Secrets Manager client used by SecretsVault.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ParameterLister is the part of the SSM client used by ParameterStore.
type ParameterLister = ssm.GetParametersByPathAPIClient

// AWSOptions selects how SDK clients are built.
type AWSOptions struct {
	Region  string
	Profile string
	// Endpoint overrides the service endpoint, e.g. for a local emulator.
	Endpoint string

	// Static credentials. When AccessKeyID is empty the default chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// CAFile and CADir add trusted roots for endpoints behind a private CA.
	CAFile string
	CADir  string
}

// AWSClients bundles the SDK clients and the credentials provider used for
// availability probes.
type AWSClients struct {
	Region      string
	Credentials aws.CredentialsProvider
	Objects     ObjectGetter
	Secrets     SecretGetter
	Parameters  ParameterLister
}

// NewAWSClients loads the shared SDK configuration and builds clients. SDK
// level retries are disabled; the retry package owns retrying.
func NewAWSClients(ctx context.Context, opts AWSOptions) (*AWSClients, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken)))
	}

	roots, err := tlsroots.Load(opts.CAFile, opts.CADir)
	if err != nil {
		return nil, fmt.Errorf("load aws ca bundle: %w", err)
	}
	if roots != nil {
		client := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
			tr.TLSClientConfig = roots.TLSConfig()
		})
		loadOpts = append(loadOpts, config.WithHTTPClient(client))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if opts.Endpoint != "" {
		cfg.BaseEndpoint = aws.String(opts.Endpoint)
	}

	return &AWSClients{
		Region:      cfg.Region,
		Credentials: cfg.Credentials,
		Objects: s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = opts.Endpoint != ""
		}),
		Secrets:    secretsmanager.NewFromConfig(cfg),
		Parameters: ssm.NewFromConfig(cfg),
	}, nil
}

// credentialsAvailable reports whether provider can produce credentials.
func credentialsAvailable(ctx context.Context, provider aws.CredentialsProvider) bool {
	if provider == nil {
		return false
	}
	creds, err := provider.Retrieve(ctx)
	return err == nil && creds.HasKeys()
}
