// Package engine is the configuration orchestrator.
//
// An Engine is built from a fixed list of sources and a precedence spec. Each
// Load visits the sources in ascending priority, skips unavailable ones,
// fetches the rest (remote sources through the retry layer), merges the
// results, validates them and atomically installs a new immutable Snapshot.
// A failed Load leaves the previously installed snapshot untouched.
//
// States:
//
//	Unloaded --Load ok--> Loaded --Load ok--> Loaded
//	    |                   |
//	    +--Load fails-------+--> unchanged, error returned
//
// Reads (Get, GetAll, Snapshot) are lock-free and may run concurrently with an
// in-flight Load. Load itself must not run concurrently on one Engine; use a
// Reloader when several triggers can fire at once.
//
// Two application policies are layered on top without touching the state
// machine: Reloader (single-flight reloads) and FallbackLoader (reduced source
// set and last-known-good snapshot on remote failures).
package engine
