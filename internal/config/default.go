package config

import (
	"time"

	"github.com/yndnr/confmesh/internal/core/domain"
	"github.com/yndnr/confmesh/internal/precedence"
	"github.com/yndnr/confmesh/internal/retry"
	"github.com/yndnr/confmesh/internal/source"
)

// Default values.
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultProbeTimeout = 5 * time.Second
	DefaultStoreDir     = ".confmesh/snapshots"
	DefaultStoreRetain  = 20
)

// DefaultFallbackSources are the source kinds kept when a remote service
// fails.
var DefaultFallbackSources = []string{
	string(domain.SourceEnvironment),
	string(domain.SourceLocalFile),
}

// Default returns the default settings: environment and local files enabled,
// remote sources disabled.
func Default() *Settings {
	return &Settings{
		Runtime: RuntimeSection{
			PrimaryVar:     source.DefaultPrimaryVar,
			SecondaryVar:   source.DefaultSecondaryVar,
			Strategy:       string(precedence.DefaultStrategy),
			ValidateOnLoad: true,
			ProbeTimeout:   DefaultProbeTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Sources: SourcesSection{
			Environment: EnvironmentSource{Enabled: true},
			LocalFile:   LocalFileSource{Enabled: true},
			ObjectStore: ObjectStoreSource{Format: string(source.FormatAuto)},
			SecretsVault: SecretsVaultSource{
				SecretName: source.DefaultSecretName,
			},
			ParameterStore: ParameterStoreSource{
				ParameterPath: source.DefaultParameterPath,
			},
		},
		Retry: RetrySection{
			MaxAttempts: retry.DefaultMaxAttempts,
			BaseDelay:   retry.DefaultBaseDelay,
			MaxDelay:    retry.DefaultMaxDelay,
		},
		Store: StoreSection{
			Dir:    DefaultStoreDir,
			Retain: DefaultStoreRetain,
		},
	}
}
