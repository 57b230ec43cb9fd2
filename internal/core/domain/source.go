package domain

// SourceKind is the canonical identifier of a source variant. Named precedence
// strategies order sources by kind.
type SourceKind string

const (
	SourceEnvironment    SourceKind = "environment"
	SourceLocalFile      SourceKind = "local-file"
	SourceObjectStore    SourceKind = "object-store"
	SourceSecretsVault   SourceKind = "secrets-vault"
	SourceParameterStore SourceKind = "parameter-store"
)

// Service names reported in SourceServiceError.
const (
	ServiceObjectStore    = "ObjectStore"
	ServiceSecretsVault   = "SecretsVault"
	ServiceParameterStore = "ParameterStore"
)

// SentinelKey wraps payloads that are not JSON objects so they still fit
// the ConfigMap model.
const SentinelKey = "value"

// Descriptor identifies one source instance.
type Descriptor struct {
	// Name is the stable, diagnostic name of the source instance.
	Name string
	// Kind is the source variant.
	Kind SourceKind
}
