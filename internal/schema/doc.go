// Package schema validates merged configuration.
//
// A Schema returns nil or a *domain.ValidationError that lists every
// violation, never just the first one. Implementations:
//
//   - Struct: decodes the map into a Go struct with koanf tags and runs
//     go-playground/validator rules from `validate` tags
//   - Required: a list of keys that must be present and non-empty
//   - Func: any function returning violations
//   - All: combines schemas and merges their violations
package schema
