package source_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/mocks"
	"github.com/yndnr/confmesh/internal/retry"
	"github.com/yndnr/confmesh/internal/source"
)

func inEnv(env string) source.Option {
	return source.WithEnvironmentResolver(source.EnvironmentResolver{Override: env})
}

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func TestObjectStore_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		format   source.Format
		out      *s3.GetObjectOutput
		err      error
		want     domain.ConfigMap
		wantKind domain.ErrorKind
	}{
		{
			name: "json object",
			out:  &s3.GetObjectOutput{Body: body(`{"PORT":"8080","nested":{"a":true}}`)},
			want: domain.ConfigMap{"PORT": "8080", "nested": map[string]any{"a": true}},
		},
		{
			name: "flat file",
			out:  &s3.GetObjectOutput{Body: body("PORT=8080\n# c\nURL=a=b")},
			want: domain.ConfigMap{"PORT": "8080", "URL": "a=b"},
		},
		{
			name:   "forced json non-object",
			format: source.FormatJSON,
			out:    &s3.GetObjectOutput{Body: body(`["a"]`)},
			want:   domain.ConfigMap{domain.SentinelKey: []any{"a"}},
		},
		{
			name: "missing key",
			err:  &s3types.NoSuchKey{},
			want: domain.ConfigMap{},
		},
		{
			name: "missing bucket",
			err:  &s3types.NoSuchBucket{},
			want: domain.ConfigMap{},
		},
		{
			name:     "access denied",
			err:      &smithy.GenericAPIError{Code: "AccessDenied"},
			wantKind: domain.KindSourceService,
		},
		{
			name:     "malformed json",
			out:      &s3.GetObjectOutput{Body: body(`{"PORT":`)},
			wantKind: domain.KindSourceLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mocks.MockObjectGetter{}
			client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
				return aws.ToString(in.Bucket) == "cfg" && aws.ToString(in.Key) == "app/prod.env"
			})).Return(tt.out, tt.err)

			src := source.NewObjectStore(source.ObjectStoreConfig{
				Bucket: "cfg",
				Key:    "app/prod.env",
				Format: tt.format,
			}, client, mocks.StaticCredentials())

			got, err := src.Fetch(context.Background())
			if tt.wantKind != domain.KindUnknown {
				if domain.KindOf(err) != tt.wantKind {
					t.Fatalf("Fetch() error = %v, want kind %v", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fetch() = %#v, want %#v", got, tt.want)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestObjectStore_ServiceErrorDetails(t *testing.T) {
	client := &mocks.MockObjectGetter{}
	client.On("GetObject", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "AccessDenied"})

	src := source.NewObjectStore(source.ObjectStoreConfig{Bucket: "b", Key: "k"}, client, mocks.StaticCredentials())
	_, err := src.Fetch(context.Background())

	var svc *domain.SourceServiceError
	if !errors.As(err, &svc) {
		t.Fatalf("error = %T, want *SourceServiceError", err)
	}
	if svc.Service != "ObjectStore" || svc.Operation != "GetObject" {
		t.Errorf("service/operation = %s/%s", svc.Service, svc.Operation)
	}
	if retry.Classify(err) != retry.Permission {
		t.Errorf("Classify() = %v, want permission", retry.Classify(err))
	}
}

func TestObjectStore_Identity(t *testing.T) {
	src := source.NewObjectStore(source.ObjectStoreConfig{Bucket: "cfg", Key: "a.json"}, &mocks.MockObjectGetter{}, nil)
	if src.Name() != "object-store:s3://cfg/a.json" {
		t.Errorf("Name() = %q", src.Name())
	}
	if !source.IsRemote(src) {
		t.Error("object store should be remote")
	}
	if src.Available(context.Background()) {
		t.Error("Available() without credentials should be false")
	}

	creds := &mocks.MockCredentials{}
	creds.On("Retrieve", mock.Anything).Return(nil, errors.New("no credentials"))
	src = source.NewObjectStore(source.ObjectStoreConfig{Bucket: "cfg"}, &mocks.MockObjectGetter{}, creds)
	if src.Available(context.Background()) {
		t.Error("Available() with failing credentials should be false")
	}

	src = source.NewObjectStore(source.ObjectStoreConfig{Bucket: "cfg"}, &mocks.MockObjectGetter{}, mocks.StaticCredentials())
	if !src.Available(context.Background()) {
		t.Error("Available() with credentials should be true")
	}
}

func TestSecretsVault_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		out      *secretsmanager.GetSecretValueOutput
		err      error
		want     domain.ConfigMap
		wantKind domain.ErrorKind
	}{
		{
			name: "json object",
			out:  &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"DB_PASSWORD":"p","PORT":5432}`)},
			want: domain.ConfigMap{"DB_PASSWORD": "p", "PORT": float64(5432)},
		},
		{
			name: "plain string",
			out:  &secretsmanager.GetSecretValueOutput{SecretString: aws.String("hunter2")},
			want: domain.ConfigMap{"value": "hunter2"},
		},
		{
			name: "non-object json",
			out:  &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`[1]`)},
			want: domain.ConfigMap{"value": []any{float64(1)}},
		},
		{
			name: "binary",
			out:  &secretsmanager.GetSecretValueOutput{SecretBinary: []byte(`{"K":"v"}`)},
			want: domain.ConfigMap{"K": "v"},
		},
		{
			name: "not found",
			err:  &smtypes.ResourceNotFoundException{},
			want: domain.ConfigMap{},
		},
		{
			name:     "access denied",
			err:      &smithy.GenericAPIError{Code: "AccessDeniedException"},
			wantKind: domain.KindSourceService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mocks.MockSecretGetter{}
			client.On("GetSecretValue", mock.Anything, mock.MatchedBy(func(in *secretsmanager.GetSecretValueInput) bool {
				return aws.ToString(in.SecretId) == "/prod/app/secrets"
			})).Return(tt.out, tt.err)

			src := source.NewSecretsVault(source.SecretsVaultConfig{}, client, mocks.StaticCredentials(), inEnv("production"))

			got, err := src.Fetch(context.Background())
			if tt.wantKind != domain.KindUnknown {
				var svc *domain.SourceServiceError
				if !errors.As(err, &svc) || svc.Service != "SecretsVault" {
					t.Fatalf("Fetch() error = %v, want SecretsVault service error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fetch() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSecretsVault_Environment(t *testing.T) {
	client := &mocks.MockSecretGetter{}

	local := source.NewSecretsVault(source.SecretsVaultConfig{}, client, mocks.StaticCredentials(), inEnv("local"))
	if local.Available(context.Background()) {
		t.Error("secrets vault must be skipped in the local environment")
	}

	prod := source.NewSecretsVault(source.SecretsVaultConfig{SecretName: "/svc"}, client, mocks.StaticCredentials(), inEnv("production"))
	if prod.Name() != "secrets-vault:/prod/svc" {
		t.Errorf("Name() = %q", prod.Name())
	}
	if !prod.Available(context.Background()) {
		t.Error("Available() should be true in production with credentials")
	}

	unmapped := source.NewSecretsVault(source.SecretsVaultConfig{}, client, mocks.StaticCredentials(), inEnv("qa"))
	if unmapped.Name() != "secrets-vault" {
		t.Errorf("Name() without mapping = %q, want base identifier", unmapped.Name())
	}
	_, err := unmapped.Fetch(context.Background())
	if domain.KindOf(err) != domain.KindSourceLoad {
		t.Errorf("Fetch() error = %v, want SourceLoadError", err)
	}
	if retry.Retryable(err) {
		t.Error("a missing environment mapping must not be retried")
	}
	client.AssertNotCalled(t, "GetSecretValue", mock.Anything, mock.Anything)
}

func TestParameterStore_FetchPaginates(t *testing.T) {
	client := &mocks.MockParameterLister{}
	client.On("GetParametersByPath", mock.Anything, mock.MatchedBy(func(in *ssm.GetParametersByPathInput) bool {
		return in.NextToken == nil && aws.ToString(in.Path) == "/prod/app/config" &&
			aws.ToBool(in.Recursive) && aws.ToBool(in.WithDecryption)
	})).Return(&ssm.GetParametersByPathOutput{
		Parameters: []ssmtypes.Parameter{
			{Name: aws.String("/prod/app/config/db/host"), Value: aws.String("db.internal")},
			{Name: aws.String("/prod/app/config/port"), Value: aws.String("8080")},
			{Name: aws.String("/prod/app/config/empty"), Value: nil},
			{Name: aws.String("/prod/app/config/blank"), Value: aws.String("")},
		},
		NextToken: aws.String("page-2"),
	}, nil).Once()
	client.On("GetParametersByPath", mock.Anything, mock.MatchedBy(func(in *ssm.GetParametersByPathInput) bool {
		return aws.ToString(in.NextToken) == "page-2"
	})).Return(&ssm.GetParametersByPathOutput{
		Parameters: []ssmtypes.Parameter{
			{Name: aws.String("/prod/app/config/feature/flag"), Value: aws.String("on")},
			{Name: aws.String("/prod/app/config"), Value: aws.String("root")},
		},
	}, nil).Once()

	src := source.NewParameterStore(source.ParameterStoreConfig{}, client, mocks.StaticCredentials(), inEnv("production"))
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := domain.ConfigMap{"DB_HOST": "db.internal", "PORT": "8080", "FEATURE_FLAG": "on"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fetch() = %v, want %v", got, want)
	}
	client.AssertExpectations(t)
}

func TestParameterStore_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantErr  bool
		wantKind domain.ErrorKind
	}{
		{"not found", &ssmtypes.ParameterNotFound{}, false, domain.KindUnknown},
		{"throttled", &smithy.GenericAPIError{Code: "ThrottlingException"}, true, domain.KindSourceService},
		{"denied", &smithy.GenericAPIError{Code: "AccessDeniedException"}, true, domain.KindSourceService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mocks.MockParameterLister{}
			client.On("GetParametersByPath", mock.Anything, mock.Anything).Return(nil, tt.err)

			src := source.NewParameterStore(source.ParameterStoreConfig{}, client, mocks.StaticCredentials(), inEnv("staging"))
			got, err := src.Fetch(context.Background())
			if !tt.wantErr {
				if err != nil || len(got) != 0 {
					t.Fatalf("Fetch() = %v, %v; want empty map", got, err)
				}
				return
			}

			var svc *domain.SourceServiceError
			if !errors.As(err, &svc) || svc.Service != "ParameterStore" || svc.Operation != "GetParametersByPath" {
				t.Fatalf("Fetch() error = %v", err)
			}
		})
	}
}

func TestParameterStore_Identity(t *testing.T) {
	decrypt := false
	client := &mocks.MockParameterLister{}
	client.On("GetParametersByPath", mock.Anything, mock.MatchedBy(func(in *ssm.GetParametersByPathInput) bool {
		return !aws.ToBool(in.WithDecryption)
	})).Return(&ssm.GetParametersByPathOutput{}, nil)

	src := source.NewParameterStore(source.ParameterStoreConfig{
		ParameterPath:      "/svc",
		EnvironmentMapping: map[string]string{"qa": "qa-eu"},
		WithDecryption:     &decrypt,
	}, client, mocks.StaticCredentials(), inEnv("qa"))

	if src.Name() != "parameter-store:/qa-eu/svc" {
		t.Errorf("Name() = %q", src.Name())
	}
	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	client.AssertExpectations(t)

	local := source.NewParameterStore(source.ParameterStoreConfig{}, client, mocks.StaticCredentials(), inEnv("local"))
	if local.Available(context.Background()) {
		t.Error("parameter store must be skipped in the local environment")
	}
}

func TestLocalFile_UnreadableFile(t *testing.T) {
	fsys := &mocks.MockFileSystem{}
	fsys.On("ReadFile", "missing.env").Return(nil, fs.ErrNotExist)
	fsys.On("ReadFile", "locked.env").Return(nil, fs.ErrPermission)

	src, err := source.NewLocalFile(source.LocalFileConfig{Paths: []string{"missing.env", "locked.env"}}, source.WithFileSystem(fsys))
	if err != nil {
		t.Fatalf("NewLocalFile() error = %v", err)
	}

	_, err = src.Fetch(context.Background())
	var loadErr *domain.SourceLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Fetch() error = %v, want *SourceLoadError", err)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("cause should be preserved")
	}
	fsys.AssertExpectations(t)
}

func TestLocalFile_AvailableUsesOpen(t *testing.T) {
	fsys := &mocks.MockFileSystem{}
	fsys.On("Open", ".env").Return(nil, fs.ErrNotExist)
	fsys.On("Open", ".env.local").Return(body(""), nil)

	src, _ := source.NewLocalFile(source.LocalFileConfig{}, source.WithFileSystem(fsys))
	if !src.Available(context.Background()) {
		t.Error("Available() should be true when one default path opens")
	}
	fsys.AssertExpectations(t)
}
