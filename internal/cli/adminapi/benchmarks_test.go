package adminapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/yndnr/yeti-admin/internal/cli/connection"
)

func TestGetRunner(t *testing.T) {
	c, _ := newTestClient(t, connection.AuthBearer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/admin/runner" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"status":"running","testName":"rest-read","startedAt":1767322800.5,
			"warmupSecs":0,"elapsedSecs":12.4,"configuredDuration":60,"lastError":null,
			"configs":[{"id":"rest-read","duration":60,"vus":100}]}`)
	}))

	status, err := c.GetRunner(context.Background())
	if err != nil {
		t.Fatalf("GetRunner() error = %v", err)
	}
	if status.Idle() || status.TestName != "rest-read" || status.ElapsedSecs != 12.4 {
		t.Errorf("GetRunner() = %+v", status)
	}
	if status.ConfiguredDuration == nil || *status.ConfiguredDuration != 60 {
		t.Errorf("ConfiguredDuration = %v", status.ConfiguredDuration)
	}
	if len(status.Configs) != 1 || status.Configs[0].VUs == nil || *status.Configs[0].VUs != 100 {
		t.Errorf("Configs = %+v", status.Configs)
	}
}

func TestStartBenchmark(t *testing.T) {
	var body map[string]string
	c, _ := newTestClient(t, connection.AuthBearer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/runner" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"status":"running","testName":"ws","pid":4242}`)
	}))

	started, err := c.StartBenchmark(context.Background(), "ws")
	if err != nil {
		t.Fatalf("StartBenchmark() error = %v", err)
	}
	if body["test"] != "ws" {
		t.Errorf("body = %v", body)
	}
	if started.PID != 4242 || started.TestName != "ws" {
		t.Errorf("StartBenchmark() = %+v", started)
	}
}

func TestStartBenchmark_AlreadyRunning(t *testing.T) {
	c, _ := newTestClient(t, connection.AuthBearer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "A test is already running", http.StatusBadRequest)
	}))

	_, err := c.StartBenchmark(context.Background(), "ws")
	if !connection.IsStatus(err, http.StatusBadRequest) {
		t.Errorf("StartBenchmark() error = %v, want 400", err)
	}
}

func TestBestResults_List(t *testing.T) {
	c, _ := newTestClient(t, connection.AuthBearer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/best-results" {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeJSON(w, []map[string]any{
			{
				"testName":     "ws",
				"timestamp":    "2026-01-02T03:04:05Z",
				"durationSecs": 30.1,
				"results":      `{"throughput":950.5,"p50":1.25,"p99":8.5,"total":28600,"errors":2}`,
				"summary":      "28.6k requests in 30s",
			},
			{
				"testName": "rest-read",
				"results":  map[string]any{"throughput": 12000.0, "p50": 0.4, "p99": 2.1, "total": 360000, "errors": 0},
			},
		})
	}))

	results, err := c.BestResults(context.Background())
	if err != nil {
		t.Fatalf("BestResults() error = %v", err)
	}
	if len(results) != 2 || results[0].TestName != "rest-read" || results[1].TestName != "ws" {
		t.Fatalf("BestResults() = %+v", results)
	}
	ws := results[1]
	if ws.Throughput != 950.5 || ws.P99 != 8.5 || ws.Total != 28600 || ws.Errors != 2 || ws.DurationSecs != 30.1 {
		t.Errorf("ws = %+v", ws)
	}
	if results[0].Total != 360000 {
		t.Errorf("rest-read = %+v", results[0])
	}
}

func TestBestResults_ByTest(t *testing.T) {
	c, _ := newTestClient(t, connection.AuthBearer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"sse":{"results":"{\"throughput\":10,\"total\":300}"},"ws":{"testName":"ws"}}`)
	}))

	results, err := c.BestResults(context.Background())
	if err != nil {
		t.Fatalf("BestResults() error = %v", err)
	}
	if len(results) != 2 || results[0].TestName != "sse" || results[0].Total != 300 {
		t.Errorf("BestResults() = %+v", results)
	}
}

func TestBestResults_BadMetrics(t *testing.T) {
	c, _ := newTestClient(t, connection.AuthBearer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"testName":"ws","results":"not json"}]`)
	}))

	if _, err := c.BestResults(context.Background()); err == nil {
		t.Error("BestResults() expected error")
	}
}

func TestLookupBenchmarkTest(t *testing.T) {
	if tt, ok := LookupBenchmarkTest("vector-search"); !ok || tt.Name != "Vector Search" {
		t.Errorf("LookupBenchmarkTest(vector-search) = %+v, %v", tt, ok)
	}
	if _, ok := LookupBenchmarkTest("nope"); ok {
		t.Error("LookupBenchmarkTest(nope) found")
	}
}
