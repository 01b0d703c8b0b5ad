package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// Runner states reported by the benchmark runner.
const (
	RunnerIdle    = "idle"
	RunnerWarming = "warming"
	RunnerRunning = "running"
)

// BenchmarkTest is a load test the runner knows how to start.
type BenchmarkTest struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Duration int    `json:"duration" yaml:"duration"`
	VUs      int    `json:"vus" yaml:"vus"`
}

// BenchmarkTests is the runner's test catalog with its default duration
// (seconds) and virtual users. Overrides live in the TestConfig table.
var BenchmarkTests = []BenchmarkTest{
	{ID: "rest-read", Name: "REST Reads", Duration: 30, VUs: 50},
	{ID: "rest-write", Name: "REST Writes", Duration: 30, VUs: 50},
	{ID: "rest-update", Name: "REST Update", Duration: 30, VUs: 50},
	{ID: "rest-join", Name: "REST Join", Duration: 30, VUs: 50},
	{ID: "graphql-read", Name: "GraphQL Reads", Duration: 30, VUs: 50},
	{ID: "graphql-mutation", Name: "GraphQL Mutations", Duration: 30, VUs: 50},
	{ID: "graphql-join", Name: "GraphQL Join", Duration: 30, VUs: 50},
	{ID: "vector-embed", Name: "Vector Embed", Duration: 30, VUs: 50},
	{ID: "vector-search", Name: "Vector Search", Duration: 30, VUs: 50},
	{ID: "ws", Name: "WebSocket", Duration: 30, VUs: 50},
	{ID: "sse", Name: "SSE Streaming", Duration: 30, VUs: 50},
	{ID: "blob-retrieval", Name: "150k Blob Retrieval", Duration: 30, VUs: 50},
}

// LookupBenchmarkTest returns the catalog entry for id.
func LookupBenchmarkTest(id string) (BenchmarkTest, bool) {
	for _, t := range BenchmarkTests {
		if t.ID == id {
			return t, true
		}
	}
	return BenchmarkTest{}, false
}

// BenchmarkConfig is a per-test override stored on the server.
type BenchmarkConfig struct {
	ID       string `json:"id" yaml:"id"`
	Duration *int   `json:"duration,omitempty" yaml:"duration,omitempty"`
	VUs      *int   `json:"vus,omitempty" yaml:"vus,omitempty"`
}

// RunnerStatus is the state of the benchmark runner.
type RunnerStatus struct {
	Status             string            `json:"status" yaml:"status"`
	TestName           string            `json:"testName,omitempty" yaml:"test_name,omitempty"`
	StartedAt          *float64          `json:"startedAt,omitempty" yaml:"started_at,omitempty"`
	WarmupSecs         float64           `json:"warmupSecs" yaml:"warmup_secs"`
	ElapsedSecs        float64           `json:"elapsedSecs" yaml:"elapsed_secs"`
	ConfiguredDuration *int              `json:"configuredDuration,omitempty" yaml:"configured_duration,omitempty"`
	LastError          string            `json:"lastError,omitempty" yaml:"last_error,omitempty"`
	Configs            []BenchmarkConfig `json:"configs,omitempty" yaml:"configs,omitempty"`
}

// Idle reports whether no test is warming up or running.
func (s *RunnerStatus) Idle() bool {
	return s.Status == "" || s.Status == RunnerIdle
}

// RunStarted is the reply to a started benchmark.
type RunStarted struct {
	Status   string `json:"status" yaml:"status"`
	TestName string `json:"testName" yaml:"test_name"`
	PID      int    `json:"pid,omitempty" yaml:"pid,omitempty"`
}

// BenchmarkResult is the best recorded run of one test.
type BenchmarkResult struct {
	TestName     string  `json:"testName" yaml:"test_name"`
	Throughput   float64 `json:"throughput" yaml:"throughput"`
	P50          float64 `json:"p50" yaml:"p50"`
	P99          float64 `json:"p99" yaml:"p99"`
	Total        uint64  `json:"total" yaml:"total"`
	Errors       uint64  `json:"errors" yaml:"errors"`
	DurationSecs float64 `json:"durationSecs" yaml:"duration_secs" table:"wide"`
	Timestamp    string  `json:"timestamp,omitempty" yaml:"timestamp,omitempty" table:"wide"`
	Summary      string  `json:"summary,omitempty" yaml:"summary,omitempty" table:"-"`
}

// benchmarkMetrics is the results block of a run. The runner stores it as
// a JSON-encoded string.
type benchmarkMetrics struct {
	Throughput float64 `json:"throughput"`
	P50        float64 `json:"p50"`
	P99        float64 `json:"p99"`
	Total      uint64  `json:"total"`
	Errors     uint64  `json:"errors"`
}

type benchmarkRun struct {
	TestName     string          `json:"testName"`
	Timestamp    string          `json:"timestamp"`
	DurationSecs float64         `json:"durationSecs"`
	Results      json.RawMessage `json:"results"`
	Summary      string          `json:"summary"`
}

func (r benchmarkRun) result() (BenchmarkResult, error) {
	out := BenchmarkResult{
		TestName:     r.TestName,
		DurationSecs: r.DurationSecs,
		Timestamp:    r.Timestamp,
		Summary:      r.Summary,
	}

	raw := bytes.TrimSpace(r.Results)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return out, err
		}
		raw = []byte(s)
	}

	var m benchmarkMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return out, fmt.Errorf("results of %s: %w", r.TestName, err)
	}
	out.Throughput, out.P50, out.P99 = m.Throughput, m.P50, m.P99
	out.Total, out.Errors = m.Total, m.Errors
	return out, nil
}

// GetRunner returns the benchmark runner state.
func (c *Client) GetRunner(ctx context.Context) (*RunnerStatus, error) {
	var status RunnerStatus
	if err := c.gw.Do(ctx, http.MethodGet, BasePath+"/runner", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartBenchmark asks the runner to start the test with the given ID.
func (c *Client) StartBenchmark(ctx context.Context, testID string) (*RunStarted, error) {
	var started RunStarted
	body := map[string]string{"test": testID}
	if err := c.gw.Do(ctx, http.MethodPost, BasePath+"/runner", body, &started); err != nil {
		return nil, err
	}
	return &started, nil
}

// BestResults returns the best run of each test, sorted by test name. The
// server may send a list of runs or an object keyed by test name.
func (c *Client) BestResults(ctx context.Context) ([]BenchmarkResult, error) {
	var raw json.RawMessage
	if err := c.gw.Do(ctx, http.MethodGet, BasePath+"/best-results", nil, &raw); err != nil {
		return nil, err
	}

	var runs []benchmarkRun
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '{':
		var byTest map[string]benchmarkRun
		if err := json.Unmarshal(raw, &byTest); err != nil {
			return nil, fmt.Errorf("best results: %w", err)
		}
		for name, run := range byTest {
			if run.TestName == "" {
				run.TestName = name
			}
			runs = append(runs, run)
		}
	default:
		if err := json.Unmarshal(raw, &runs); err != nil {
			return nil, fmt.Errorf("best results: %w", err)
		}
	}

	results := make([]BenchmarkResult, 0, len(runs))
	for _, run := range runs {
		res, err := run.result()
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TestName < results[j].TestName })
	return results, nil
}
