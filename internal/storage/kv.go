package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// Engine names accepted by Open.
const (
	EngineFile   = "file"
	EngineBadger = "badger"
	EngineMemory = "memory"
)

// KV is a minimal durable key-value store.
//
// Implementation requirements:
//   - Thread-safe: concurrent reads/writes must be safe
//   - Durable: data must survive process restarts (MemoryEngine excepted)
type KV interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Close releases the engine's resources.
	Close() error
}

// KVConfig configures a KV engine.
type KVConfig struct {
	// Engine specifies the engine type ("file", "badger", "memory").
	// Default: "file"
	Engine string

	// Dir is the storage directory.
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// SyncWrites enables fsync after each write.
	// Default: true (credential writes are rare and must survive a crash)
	SyncWrites bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: EngineFile,
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  "10m",
		GCThreshold: 0.5,
		SyncWrites:  true,
	}
}

// Open creates the engine selected by cfg.Engine.
func Open(cfg KVConfig, logger *slog.Logger) (KV, error) {
	switch cfg.Engine {
	case "", EngineFile:
		return NewFileEngine(cfg.Dir)
	case EngineBadger:
		return NewBadgerEngine(cfg, logger)
	case EngineMemory:
		return NewMemoryEngine(), nil
	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
}
