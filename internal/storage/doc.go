// Package storage is the last-known-good snapshot store.
//
// Snapshots are kept in an embedded Badger database. Each record is stored
// under "snapshot/<ULID>", so key order is creation order and the newest
// record is found with a single reverse seek.
//
// A background loop runs Badger value log GC on disk-backed stores. An
// in-memory mode is available for tests and one-shot CLI runs.
package storage
