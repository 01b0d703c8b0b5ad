package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/yeti-admin/internal/cli/credential"
	"github.com/yndnr/yeti-admin/internal/storage"
)

const (
	testUser     = "admin"
	testPassword = "secret"
)

// sharedKV survives Close so consecutive runs see the same credential,
// like the file backend does across processes.
type sharedKV struct {
	*storage.MemoryEngine
}

func (sharedKV) Close() error { return nil }

// fakeYeti is a minimal Yeti deployment. Every route except login needs
// the issued bearer token.
type fakeYeti struct {
	*httptest.Server
	token string

	mu       sync.Mutex
	requests []string
}

func newFakeYeti(t *testing.T, routes map[string]http.HandlerFunc) *fakeYeti {
	t.Helper()

	f := &fakeYeti{token: testToken(t, time.Now().Add(time.Hour))}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /yeti-auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Username != testUser || req.Password != testPassword {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]string{"access_token": f.currentToken()})
	})
	mux.HandleFunc("GET /yeti-auth/auth", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]bool{"ok": true})
	}))
	for pattern, h := range routes {
		mux.HandleFunc(pattern, f.authed(h))
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeYeti) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.currentToken() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

func (f *fakeYeti) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// rotate invalidates every credential issued so far.
func (f *fakeYeti) rotate() {
	f.mu.Lock()
	f.token = "rotated"
	f.mu.Unlock()
}

func (f *fakeYeti) requested(req string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == req {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func testToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   testUser,
		Issuer:    "yeti-auth",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

// testEnv runs the app against a fake server with an isolated home,
// config file and credential store.
type testEnv struct {
	t       *testing.T
	server  *fakeYeti
	kv      sharedKV
	dir     string
	cfgPath string
}

func newTestEnv(t *testing.T, routes map[string]http.HandlerFunc) *testEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("NO_COLOR", "1")

	cfgPath := filepath.Join(dir, "admin.yaml")
	cfg := "auth:\n  mode: bearer\noutput:\n  color: never\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &testEnv{
		t:       t,
		server:  newFakeYeti(t, routes),
		kv:      sharedKV{storage.NewMemoryEngine()},
		dir:     dir,
		cfgPath: cfgPath,
	}
}

// run executes one invocation and returns stdout and stderr.
func (e *testEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.runContext(ctx, stdin, args...)
}

func (e *testEnv) runContext(ctx context.Context, stdin string, args ...string) (string, string, error) {
	e.t.Helper()

	var stdout, stderr bytes.Buffer
	app := newApp(e.kv)
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	full := append([]string{app.Name, "--server", e.server.URL, "--config", e.cfgPath}, args...)
	err := app.RunContext(ctx, full)
	return stdout.String(), stderr.String(), err
}

// login stores the fake server's token as if a login had succeeded.
func (e *testEnv) login() {
	e.t.Helper()
	if err := e.kv.Set(context.Background(), []byte(credential.StorageKey), []byte(e.server.currentToken())); err != nil {
		e.t.Fatalf("seed credential: %v", err)
	}
}

func (e *testEnv) storedCredential() string {
	e.t.Helper()
	v, err := e.kv.Get(context.Background(), []byte(credential.StorageKey))
	if err != nil {
		return ""
	}
	return string(v)
}
