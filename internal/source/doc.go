// Package source implements the configuration source adapters.
//
// Every adapter fetches a flat or near-flat mapping from one place and never
// merges or validates:
//
//   - Environment: the process environment, optionally prefix filtered
//   - LocalFile: KEY=VALUE files on disk
//   - ObjectStore: one S3 object (JSON or KEY=VALUE)
//   - SecretsVault: one Secrets Manager secret
//   - ParameterStore: an SSM parameter hierarchy
//
// The remote adapters depend on narrow client interfaces so they can be
// driven by fakes; NewAWSClients builds the real SDK clients. Missing remote
// resources yield an empty mapping. Other remote failures are reported as
// *domain.SourceServiceError; read and parse failures as
// *domain.SourceLoadError.
package source
