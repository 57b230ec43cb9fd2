// Package mocks holds testify/mock doubles for the interfaces confmesh
// depends on.
package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/stretchr/testify/mock"

	"github.com/yndnr/confmesh/internal/source"
)

var (
	_ source.ObjectGetter     = (*MockObjectGetter)(nil)
	_ source.SecretGetter     = (*MockSecretGetter)(nil)
	_ source.ParameterLister  = (*MockParameterLister)(nil)
	_ aws.CredentialsProvider = (*MockCredentials)(nil)
)

// MockObjectGetter mocks the S3 GetObject call.
type MockObjectGetter struct {
	mock.Mock
}

// GetObject mocks the GetObject method.
func (m *MockObjectGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	var out *s3.GetObjectOutput
	if args.Get(0) != nil {
		out = args.Get(0).(*s3.GetObjectOutput)
	}
	return out, args.Error(1)
}

// MockSecretGetter mocks the Secrets Manager GetSecretValue call.
type MockSecretGetter struct {
	mock.Mock
}

// GetSecretValue mocks the GetSecretValue method.
func (m *MockSecretGetter) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	args := m.Called(ctx, in)
	var out *secretsmanager.GetSecretValueOutput
	if args.Get(0) != nil {
		out = args.Get(0).(*secretsmanager.GetSecretValueOutput)
	}
	return out, args.Error(1)
}

// MockParameterLister mocks the SSM GetParametersByPath call.
type MockParameterLister struct {
	mock.Mock
}

// GetParametersByPath mocks the GetParametersByPath method.
func (m *MockParameterLister) GetParametersByPath(ctx context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	args := m.Called(ctx, in)
	var out *ssm.GetParametersByPathOutput
	if args.Get(0) != nil {
		out = args.Get(0).(*ssm.GetParametersByPathOutput)
	}
	return out, args.Error(1)
}

// MockCredentials mocks an aws.CredentialsProvider.
type MockCredentials struct {
	mock.Mock
}

// Retrieve mocks the Retrieve method.
func (m *MockCredentials) Retrieve(ctx context.Context) (aws.Credentials, error) {
	args := m.Called(ctx)
	var creds aws.Credentials
	if args.Get(0) != nil {
		creds = args.Get(0).(aws.Credentials)
	}
	return creds, args.Error(1)
}

// StaticCredentials returns a provider that always resolves test keys.
func StaticCredentials() *MockCredentials {
	m := &MockCredentials{}
	m.On("Retrieve", mock.Anything).Return(aws.Credentials{
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
		Source:          "mock",
	}, nil)
	return m
}
