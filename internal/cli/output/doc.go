// Package output renders CLI results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables for humans
//   - json.go, yaml.go: machine-readable encodings
//   - env.go: KEY=VALUE lines for shell consumption
package output
