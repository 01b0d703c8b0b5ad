package metric

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.RequestsTotal == nil || r.RequestDuration == nil {
		t.Error("request metrics are nil")
	}
	if r.SessionTransitions == nil || r.SessionsExpired == nil {
		t.Error("session metrics are nil")
	}
}

func TestRequestMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordRequest("GET", 200)
	r.RecordRequest("GET", 200)
	r.RecordRequest("POST", 401)
	r.RecordRequest("GET", 0)
	r.ObserveRequestDuration("GET", 0.005)
	r.ObserveRequestDuration("GET", 0.010)

	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("GET", "200")); got != 2 {
		t.Errorf("requests_total{GET,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("POST", "401")); got != 1 {
		t.Errorf("requests_total{POST,401} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("GET", "error")); got != 1 {
		t.Errorf("requests_total{GET,error} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.RequestDuration); got != 1 {
		t.Errorf("request_duration series = %d, want 1", got)
	}
}

func TestSessionMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordTransition("unknown", "authenticated")
	r.RecordTransition("authenticated", "unknown")
	r.RecordTransition("unknown", "unauthenticated")
	r.IncSessionExpired()
	r.RecordLogin("success")
	r.RecordLogin("failure")
	r.RecordLogin("failure")
	r.RecordCredentialWrite("set")

	if got := testutil.ToFloat64(r.SessionTransitions.WithLabelValues("unknown", "authenticated")); got != 1 {
		t.Errorf("transitions{unknown,authenticated} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.SessionsExpired); got != 1 {
		t.Errorf("sessions_expired_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.LoginAttempts.WithLabelValues("failure")); got != 2 {
		t.Errorf("login_attempts_total{failure} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.CredentialWrites.WithLabelValues("set")); got != 1 {
		t.Errorf("credential_writes_total{set} = %v, want 1", got)
	}
}

func TestSessionStateCollector(t *testing.T) {
	r := NewRegistry()
	state := "authenticated"
	if err := r.RegisterSessionState(func() string { return state }); err != nil {
		t.Fatalf("RegisterSessionState() error = %v", err)
	}

	expected := `
# HELP yeti_admin_session_state Current session state (1 for the active state).
# TYPE yeti_admin_session_state gauge
yeti_admin_session_state{state="authenticated"} 1
yeti_admin_session_state{state="unauthenticated"} 0
yeti_admin_session_state{state="unknown"} 0
`
	if err := testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "yeti_admin_session_state"); err != nil {
		t.Errorf("unexpected session state metrics: %v", err)
	}

	state = "unauthenticated"
	expected = strings.Replace(expected, `"authenticated"} 1`, `"authenticated"} 0`, 1)
	expected = strings.Replace(expected, `"unauthenticated"} 0`, `"unauthenticated"} 1`, 1)
	if err := testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "yeti_admin_session_state"); err != nil {
		t.Errorf("unexpected session state metrics after change: %v", err)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry

	r.RecordRequest("GET", 200)
	r.ObserveRequestDuration("GET", 1)
	r.RecordTransition("a", "b")
	r.IncSessionExpired()
	r.RecordLogin("success")
	r.RecordCredentialWrite("delete")
	if err := r.RegisterSessionState(func() string { return "" }); err != nil {
		t.Errorf("RegisterSessionState() on nil = %v", err)
	}
	if err := r.WriteTextfile("/nonexistent/x.prom"); err != nil {
		t.Errorf("WriteTextfile() on nil = %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordRequest("GET", 200)

	path := filepath.Join(t.TempDir(), "yeti_admin.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `yeti_admin_requests_total{method="GET",status="200"} 1`) {
		t.Errorf("textfile missing request counter:\n%s", data)
	}
}

func TestWriteTextfile_EmptyPath(t *testing.T) {
	if err := NewRegistry().WriteTextfile(""); err != nil {
		t.Errorf("WriteTextfile(\"\") error = %v", err)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordRequest("GET", 200)
				r.ObserveRequestDuration("GET", 0.001)
				r.RecordTransition("unknown", "authenticated")
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("GET", "200")); got != 1000 {
		t.Errorf("requests_total = %v, want 1000", got)
	}
}
