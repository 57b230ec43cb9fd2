package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind identifies which branch of the error taxonomy an error belongs to.
type ErrorKind int

const (
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown ErrorKind = iota
	// KindConfiguration is the generic base kind (e.g. "not loaded yet").
	KindConfiguration
	// KindValidation means the merged configuration was rejected by a schema.
	KindValidation
	// KindSourceService means a remote service call failed.
	KindSourceService
	// KindSourceLoad means a source could not produce a mapping at all.
	KindSourceLoad
	// KindMissingKeys means required keys were absent after loading.
	KindMissingKeys
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindValidation:
		return "ValidationError"
	case KindSourceService:
		return "SourceServiceError"
	case KindSourceLoad:
		return "SourceLoadError"
	case KindMissingKeys:
		return "MissingKeysError"
	default:
		return "UnknownError"
	}
}

// Error codes, following the PREFIX-AREA-NNNN convention.
const (
	CodeConfiguration = "CM-CONF-5000"
	CodeValidation    = "CM-CONF-4220"
	CodeMissingKeys   = "CM-CONF-4040"
	CodeSourceLoad    = "CM-SRC-5000"
	CodeSourceService = "CM-SRC-5020"
)

// ErrConfiguration matches every error of the taxonomy with errors.Is.
var ErrConfiguration = &ConfigurationError{Message: "configuration error"}

// ErrNotLoaded is returned by read operations before the first successful load.
var ErrNotLoaded = &ConfigurationError{Message: "configuration not loaded"}

// taxonomyError is implemented by every error type in this file.
type taxonomyError interface {
	error
	Code() string
	Kind() ErrorKind
}

// KindOf returns the taxonomy kind of the first matching error in err's chain.
func KindOf(err error) ErrorKind {
	var te taxonomyError
	if errors.As(err, &te) {
		return te.Kind()
	}
	return KindUnknown
}

// CodeOf extracts the error code from err, or "" if err is outside the taxonomy.
func CodeOf(err error) string {
	var te taxonomyError
	if errors.As(err, &te) {
		return te.Code()
	}
	return ""
}

// isBase reports whether target is the taxonomy base sentinel.
func isBase(target error) bool {
	return target == ErrConfiguration
}

// ============================================================================
// ConfigurationError
// ============================================================================

// ConfigurationError is the base of the error taxonomy.
type ConfigurationError struct {
	Message string
	Cause   error
}

// NewConfigurationError creates a ConfigurationError with an optional cause.
func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{Message: message, Cause: cause}
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", CodeConfiguration, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", CodeConfiguration, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error { return e.Cause }

// Code returns the error code.
func (e *ConfigurationError) Code() string { return CodeConfiguration }

// Kind returns KindConfiguration.
func (e *ConfigurationError) Kind() ErrorKind { return KindConfiguration }

// Is matches the base sentinel and sentinels sharing the same message.
func (e *ConfigurationError) Is(target error) bool {
	if isBase(target) {
		return true
	}
	t, ok := target.(*ConfigurationError)
	return ok && t.Message == e.Message
}

// ============================================================================
// ValidationError
// ============================================================================

// Violation describes one field rejected by a schema.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// String renders the violation for error messages.
func (v Violation) String() string {
	if v.Message != "" {
		return v.Field + ": " + v.Message
	}
	return v.Field + ": failed " + v.Rule
}

// ValidationError reports that a schema rejected the merged configuration.
type ValidationError struct {
	Message    string
	Violations []Violation
	Cause      error
}

// NewValidationError creates a ValidationError listing every violation.
func NewValidationError(violations []Violation, cause error) *ValidationError {
	return &ValidationError{
		Message:    "configuration validation failed",
		Violations: violations,
		Cause:      cause,
	}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("[%s] %s", CodeValidation, e.Message)
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("[%s] %s: %s", CodeValidation, e.Message, strings.Join(parts, "; "))
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error { return e.Cause }

// Code returns the error code.
func (e *ValidationError) Code() string { return CodeValidation }

// Kind returns KindValidation.
func (e *ValidationError) Kind() ErrorKind { return KindValidation }

// Is matches the taxonomy base.
func (e *ValidationError) Is(target error) bool { return isBase(target) }

// Fields returns the names of the violated fields in order.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Field
	}
	return out
}

// ============================================================================
// SourceServiceError
// ============================================================================

// SourceServiceError reports a failed call into a remote configuration service.
type SourceServiceError struct {
	Service   string
	Operation string
	Message   string
	Cause     error
}

// NewSourceServiceError creates a SourceServiceError for service/operation.
func NewSourceServiceError(service, operation string, cause error) *SourceServiceError {
	return &SourceServiceError{
		Service:   service,
		Operation: operation,
		Message:   "remote service call failed",
		Cause:     cause,
	}
}

func (e *SourceServiceError) Error() string {
	msg := fmt.Sprintf("[%s] %s %s: %s", CodeSourceService, e.Service, e.Operation, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *SourceServiceError) Unwrap() error { return e.Cause }

// Code returns the error code.
func (e *SourceServiceError) Code() string { return CodeSourceService }

// Kind returns KindSourceService.
func (e *SourceServiceError) Kind() ErrorKind { return KindSourceService }

// Is matches the taxonomy base.
func (e *SourceServiceError) Is(target error) bool { return isBase(target) }

// ============================================================================
// SourceLoadError
// ============================================================================

// SourceLoadError reports that a source could not produce a mapping.
type SourceLoadError struct {
	Source  string
	Message string
	Cause   error
}

// NewSourceLoadError creates a SourceLoadError naming the source.
func NewSourceLoadError(source, message string, cause error) *SourceLoadError {
	return &SourceLoadError{Source: source, Message: message, Cause: cause}
}

func (e *SourceLoadError) Error() string {
	msg := fmt.Sprintf("[%s] source %q: %s", CodeSourceLoad, e.Source, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *SourceLoadError) Unwrap() error { return e.Cause }

// Code returns the error code.
func (e *SourceLoadError) Code() string { return CodeSourceLoad }

// Kind returns KindSourceLoad.
func (e *SourceLoadError) Kind() ErrorKind { return KindSourceLoad }

// Is matches the taxonomy base.
func (e *SourceLoadError) Is(target error) bool { return isBase(target) }

// ============================================================================
// MissingKeysError
// ============================================================================

// MissingKeysError lists required keys that are absent from a loaded snapshot.
type MissingKeysError struct {
	Keys []string
}

// NewMissingKeysError creates a MissingKeysError for keys.
func NewMissingKeysError(keys []string) *MissingKeysError {
	return &MissingKeysError{Keys: append([]string(nil), keys...)}
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("[%s] missing required configuration keys: %s",
		CodeMissingKeys, strings.Join(e.Keys, ", "))
}

// Code returns the error code.
func (e *MissingKeysError) Code() string { return CodeMissingKeys }

// Kind returns KindMissingKeys.
func (e *MissingKeysError) Kind() ErrorKind { return KindMissingKeys }

// Is matches the taxonomy base.
func (e *MissingKeysError) Is(target error) bool { return isBase(target) }
