// Package domain defines the core domain models for confmesh.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - ConfigMap: the key -> value mapping every source produces
//   - SourceKind / Descriptor: identity of a configuration source
//   - LoadResult / SourceSummary: output of one load cycle
//   - Errors: the typed error taxonomy shared by every component
package domain
