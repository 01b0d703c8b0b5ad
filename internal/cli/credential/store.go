package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/yeti-admin/internal/storage"
	"github.com/yndnr/yeti-admin/internal/telemetry/logger"
	"github.com/yndnr/yeti-admin/internal/telemetry/metric"
	"github.com/yndnr/yeti-admin/pkg/token"
)

// StorageKey is the single durable key the credential is kept under.
const StorageKey = "yeti.session.token"

// Store holds the session credential. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	value   string
	kv      storage.KV
	logger  logger.Logger
	metrics *metric.Registry
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records durable writes in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Store) {
		s.metrics = reg
	}
}

// New creates a Store backed by kv and loads any persisted credential.
// A missing key means no session. Other read errors are returned.
func New(kv storage.KV, log logger.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = logger.Default()
	}
	s := &Store{kv: kv, logger: log}
	for _, opt := range opts {
		opt(s)
	}

	data, err := kv.Get(context.Background(), []byte(StorageKey))
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		s.logger.Debug("no persisted credential")
	case err != nil:
		return nil, fmt.Errorf("read credential: %w", err)
	default:
		s.value = string(data)
		s.logger.Debug("loaded persisted credential", "fingerprint", token.Fingerprint(s.value))
	}

	return s, nil
}

// Get returns the current credential, or "" when there is none.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the credential. An empty value clears it from memory and
// from durable storage. The in-memory value changes even if persisting
// fails; the error is returned so the caller can warn that the session
// will not survive a restart.
func (s *Store) Set(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	ctx := context.Background()

	if value == "" {
		s.metrics.RecordCredentialWrite("delete")
		if err := s.kv.Delete(ctx, []byte(StorageKey)); err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
		s.logger.Debug("credential cleared")
		return nil
	}

	s.metrics.RecordCredentialWrite("set")
	if err := s.kv.Set(ctx, []byte(StorageKey), []byte(value)); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	s.logger.Debug("credential stored", "fingerprint", token.Fingerprint(value))
	return nil
}

// Close releases the underlying storage.
func (s *Store) Close() error {
	return s.kv.Close()
}
