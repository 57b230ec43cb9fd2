// Package envfile parses and serializes the flat KEY=VALUE text format used by
// container task definitions and .env files.
//
// Format:
//
//   - One entry per line; lines end with \n or \r\n
//   - Blank lines and lines starting with # (after leading whitespace) are ignored
//   - The first = separates key from value
//   - Keys must match ^[A-Za-z_][A-Za-z0-9_]*$, otherwise the line is ignored
//   - Values are literal: no quote stripping, escapes or interpolation
//   - Lines longer than 32 KiB are ignored
//
// Parse and Serialize are pure functions with no I/O. For any mapping whose
// keys are valid and whose values contain no line breaks,
// Parse(Serialize(m)) equals m.
package envfile
