package config

import (
	"time"

	"github.com/yndnr/confmesh/internal/precedence"
)

// Settings is the root configuration of the confmesh tool.
type Settings struct {
	Runtime  RuntimeSection  `koanf:"runtime" yaml:"runtime" json:"runtime"`
	Log      LogSection      `koanf:"log" yaml:"log" json:"log"`
	AWS      AWSSection      `koanf:"aws" yaml:"aws" json:"aws"`
	Sources  SourcesSection  `koanf:"sources" yaml:"sources" json:"sources"`
	Retry    RetrySection    `koanf:"retry" yaml:"retry" json:"retry"`
	Fallback FallbackSection `koanf:"fallback" yaml:"fallback" json:"fallback"`
	Store    StoreSection    `koanf:"store" yaml:"store" json:"store"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics" json:"metrics"`
}

// RuntimeSection configures environment resolution and merging.
type RuntimeSection struct {
	// Environment overrides the runtime environment name.
	Environment string `koanf:"environment" yaml:"environment" json:"environment"`

	// PrimaryVar and SecondaryVar name the variables consulted when
	// Environment is empty.
	PrimaryVar   string `koanf:"primary_var" yaml:"primary_var" json:"primary_var"`
	SecondaryVar string `koanf:"secondary_var" yaml:"secondary_var" json:"secondary_var"`

	// Strategy is a named precedence strategy. Ignored when Precedence is set.
	Strategy string `koanf:"strategy" yaml:"strategy" json:"strategy"`

	// Precedence is an explicit priority list.
	Precedence []precedence.Priority `koanf:"precedence" yaml:"precedence,omitempty" json:"precedence,omitempty"`

	ValidateOnLoad bool          `koanf:"validate_on_load" yaml:"validate_on_load" json:"validate_on_load"`
	ProbeTimeout   time.Duration `koanf:"probe_timeout" yaml:"probe_timeout" json:"probe_timeout"`

	// Require lists keys that must be present after every load.
	Require []string `koanf:"require" yaml:"require,omitempty" json:"require,omitempty"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// AWSSection configures the AWS SDK clients shared by the remote sources.
type AWSSection struct {
	Region  string `koanf:"region" yaml:"region" json:"region"`
	Profile string `koanf:"profile" yaml:"profile" json:"profile"`

	// Endpoint points every client at an emulator such as LocalStack.
	Endpoint string `koanf:"endpoint" yaml:"endpoint" json:"endpoint"`

	AccessKeyID     string `koanf:"access_key_id" yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key" yaml:"secret_access_key" json:"secret_access_key"`
	SessionToken    string `koanf:"session_token" yaml:"session_token" json:"session_token"`
	// CAFile and CADir extend the system roots for HTTPS to AWS endpoints.
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty" json:"ca_file,omitempty"`
	CADir  string `koanf:"ca_dir" yaml:"ca_dir,omitempty" json:"ca_dir,omitempty"`
}

// SourcesSection enables and configures each source.
type SourcesSection struct {
	Environment    EnvironmentSource    `koanf:"environment" yaml:"environment" json:"environment"`
	LocalFile      LocalFileSource      `koanf:"local_file" yaml:"local_file" json:"local_file"`
	ObjectStore    ObjectStoreSource    `koanf:"object_store" yaml:"object_store" json:"object_store"`
	SecretsVault   SecretsVaultSource   `koanf:"secrets_vault" yaml:"secrets_vault" json:"secrets_vault"`
	ParameterStore ParameterStoreSource `koanf:"parameter_store" yaml:"parameter_store" json:"parameter_store"`
}

// EnvironmentSource configures the process environment source.
type EnvironmentSource struct {
	Enabled bool     `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Prefix  string   `koanf:"prefix" yaml:"prefix" json:"prefix"`
	Exclude []string `koanf:"exclude" yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// LocalFileSource configures the flat-file source.
type LocalFileSource struct {
	Enabled  bool     `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Paths    []string `koanf:"paths" yaml:"paths,omitempty" json:"paths,omitempty"`
	Encoding string   `koanf:"encoding" yaml:"encoding" json:"encoding"`
	Override *bool    `koanf:"override" yaml:"override,omitempty" json:"override,omitempty"`
}

// ObjectStoreSource configures the object storage source.
type ObjectStoreSource struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Bucket  string `koanf:"bucket" yaml:"bucket" json:"bucket"`
	Key     string `koanf:"key" yaml:"key" json:"key"`
	Region  string `koanf:"region" yaml:"region" json:"region"`
	Format  string `koanf:"format" yaml:"format" json:"format"`
}

// SecretsVaultSource configures the secrets vault source.
type SecretsVaultSource struct {
	Enabled            bool              `koanf:"enabled" yaml:"enabled" json:"enabled"`
	SecretName         string            `koanf:"secret_name" yaml:"secret_name" json:"secret_name"`
	Region             string            `koanf:"region" yaml:"region" json:"region"`
	EnvironmentMapping map[string]string `koanf:"environment_mapping" yaml:"environment_mapping,omitempty" json:"environment_mapping,omitempty"`
}

// ParameterStoreSource configures the parameter store source.
type ParameterStoreSource struct {
	Enabled            bool              `koanf:"enabled" yaml:"enabled" json:"enabled"`
	ParameterPath      string            `koanf:"parameter_path" yaml:"parameter_path" json:"parameter_path"`
	Region             string            `koanf:"region" yaml:"region" json:"region"`
	EnvironmentMapping map[string]string `koanf:"environment_mapping" yaml:"environment_mapping,omitempty" json:"environment_mapping,omitempty"`
	WithDecryption     *bool             `koanf:"with_decryption" yaml:"with_decryption,omitempty" json:"with_decryption,omitempty"`

	// RateLimit caps page requests per second. Zero disables the limiter.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	Burst     int     `koanf:"burst" yaml:"burst" json:"burst"`
}

// RetrySection configures retries of remote sources.
type RetrySection struct {
	MaxAttempts int           `koanf:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay" yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `koanf:"max_delay" yaml:"max_delay" json:"max_delay"`
}

// FallbackSection configures the fallback loader.
type FallbackSection struct {
	Enabled bool `koanf:"enabled" yaml:"enabled" json:"enabled"`

	// Sources lists the source kinds kept in the reduced source set.
	Sources []string `koanf:"sources" yaml:"sources,omitempty" json:"sources,omitempty"`
}

// StoreSection configures the last-known-good snapshot store.
type StoreSection struct {
	Enabled  bool   `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Dir      string `koanf:"dir" yaml:"dir" json:"dir"`
	InMemory bool   `koanf:"in_memory" yaml:"in_memory" json:"in_memory"`
	Retain   int    `koanf:"retain" yaml:"retain" json:"retain"`
}

// MetricsSection configures metrics export.
type MetricsSection struct {
	// TextfilePath, when set, receives the registry in node-exporter
	// textfile format after each command.
	TextfilePath string `koanf:"textfile_path" yaml:"textfile_path" json:"textfile_path"`
}
