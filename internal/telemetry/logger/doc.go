// Package logger provides structured logging for confmesh.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, handler construction, dynamic level
//   - context.go: context propagation with a per-load correlation ID
//   - redact.go: masking of secrets in log attributes and config dumps
//
// Attributes whose key looks sensitive (password, secret, token, key,
// credential, auth) are replaced with ***REDACTED***. AWS access key IDs are
// partially masked wherever they appear.
package logger
