package connection

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yndnr/yeti-admin/internal/cli/credential"
	"github.com/yndnr/yeti-admin/internal/storage"
	"github.com/yndnr/yeti-admin/internal/telemetry/logger"
)

func newTestStore(t *testing.T, initial string) *credential.Store {
	t.Helper()
	s, err := credential.New(storage.NewMemoryEngine(), logger.Discard())
	if err != nil {
		t.Fatalf("credential.New() error = %v", err)
	}
	if initial != "" {
		if err := s.Set(initial); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	return s
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, store CredentialStore, opts ...Option) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	g, err := NewGateway(server.URL, store, opts...)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	return g
}

func bearer(t *testing.T) Option {
	t.Helper()
	s, err := NewStrategy(AuthBearer, "")
	if err != nil {
		t.Fatalf("NewStrategy() error = %v", err)
	}
	return WithStrategy(s)
}
