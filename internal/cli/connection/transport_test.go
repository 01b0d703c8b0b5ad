package connection

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/yndnr/yeti-admin/internal/telemetry/logger"
)

func TestNewTransport_BaseURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:9925", "http://localhost:9925"},
		{"https://yeti.example.com/", "https://yeti.example.com"},
		{"localhost:9925", "http://localhost:9925"},
		{"unix:///run/yeti/admin.sock", unixBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			_, got, err := newTransport(tt.server, 0, nil)
			if err != nil {
				t.Fatalf("newTransport() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("base URL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewTransport_Invalid(t *testing.T) {
	for _, server := range []string{"unix://", "http://"} {
		if _, _, err := newTransport(server, 0, nil); err == nil {
			t.Errorf("newTransport(%q) expected error", server)
		}
	}
}

func TestResolveURL(t *testing.T) {
	base := "http://localhost:9925"
	tests := []struct {
		path string
		want string
	}{
		{"/admin/apps", "http://localhost:9925/admin/apps"},
		{"admin/apps", "http://localhost:9925/admin/apps"},
		{"https://other/x", "https://other/x"},
	}
	for _, tt := range tests {
		if got := resolveURL(base, tt.path); got != tt.want {
			t.Errorf("resolveURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGateway_UnixSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "admin.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/yeti-auth/auth" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"user":"admin"}`))
	})}
	go srv.Serve(listener)
	t.Cleanup(func() { srv.Close() })

	g, err := NewGateway("unix://"+socketPath, newTestStore(t, "tok"), WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	var out map[string]string
	if err := g.Do(context.Background(), http.MethodGet, "/yeti-auth/auth", nil, &out); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if out["user"] != "admin" {
		t.Errorf("out = %v", out)
	}
}
