package source

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/retry"
	"github.com/yndnr/confmesh/internal/telemetry/logger"
)

// ObjectStoreConfig configures the object store source.
type ObjectStoreConfig struct {
	Bucket string `koanf:"bucket"`
	Key    string `koanf:"key"`
	Region string `koanf:"region"`
	// Format is auto, json or env.
	Format Format `koanf:"format"`
}

// ObjectStore reads one object from S3.
type ObjectStore struct {
	cfg    ObjectStoreConfig
	client ObjectGetter
	creds  aws.CredentialsProvider
	log    logger.Logger
}

// NewObjectStore creates an object store source.
func NewObjectStore(cfg ObjectStoreConfig, client ObjectGetter, creds aws.CredentialsProvider, opts ...Option) *ObjectStore {
	o := buildOptions(opts)
	if cfg.Format == "" {
		cfg.Format = FormatAuto
	}
	s := &ObjectStore{cfg: cfg, client: client, creds: creds}
	s.log = o.logger.With("source", s.Name())
	return s
}

// Name implements Source, e.g. "object-store:s3://bucket/key".
func (s *ObjectStore) Name() string {
	if s.cfg.Bucket == "" {
		return string(domain.SourceObjectStore)
	}
	return string(domain.SourceObjectStore) + ":s3://" + s.cfg.Bucket + "/" + s.cfg.Key
}

// Kind implements Source.
func (s *ObjectStore) Kind() domain.SourceKind { return domain.SourceObjectStore }

// Remote implements Remote.
func (s *ObjectStore) Remote() bool { return true }

// Available implements Source: true when credentials resolve.
func (s *ObjectStore) Available(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	return credentialsAvailable(ctx, s.creds)
}

// Fetch implements Source. A missing bucket or object yields an empty map.
func (s *ObjectStore) Fetch(ctx context.Context) (domain.ConfigMap, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.cfg.Key),
	})
	if err != nil {
		if retry.IsNotFound(err) {
			s.log.Debug("object not found", "bucket", s.cfg.Bucket)
			return domain.ConfigMap{}, nil
		}
		return nil, domain.NewSourceServiceError(domain.ServiceObjectStore, "GetObject", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, domain.NewSourceServiceError(domain.ServiceObjectStore, "GetObject", err)
	}

	return decodeContent(s.Name(), string(data), s.cfg.Format)
}
