// Package storage provides the durable key-value backends used by
// yeti-admin to persist client-side state across process restarts.
//
// Engines:
//
//   - FileEngine: one file per key under a directory (default)
//   - BadgerEngine: embedded Badger v3 database
//   - MemoryEngine: in-process map, for tests and ephemeral sessions
//
// All engines implement KV and are safe for concurrent use.
package storage
