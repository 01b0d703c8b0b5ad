package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Telemetry query defaults.
const (
	DefaultTelemetryLimit = 50
	AppTelemetryLimit     = 20
)

// Timestamp is a telemetry timestamp in Unix seconds. The server sends it
// as a string or a number, possibly fractional.
type Timestamp string

// UnmarshalJSON accepts a JSON string or number.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*ts = Timestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*ts = Timestamp(n.String())
	return nil
}

// Time parses the timestamp. ok is false when it is not a number.
func (ts Timestamp) Time() (t time.Time, ok bool) {
	f, err := strconv.ParseFloat(string(ts), 64)
	if err != nil {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

// String renders the timestamp as local time, or verbatim if unparseable.
func (ts Timestamp) String() string {
	if t, ok := ts.Time(); ok {
		return t.Local().Format("2006-01-02 15:04:05")
	}
	return string(ts)
}

// LogEntry is a telemetry log record.
type LogEntry struct {
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`
	Level     string    `json:"level" yaml:"level"`
	Target    string    `json:"target" yaml:"target" table:"wide"`
	Message   string    `json:"message" yaml:"message"`
	ID        string    `json:"id" yaml:"id" table:"wide"`
}

// SpanEntry is a telemetry span.
type SpanEntry struct {
	Timestamp  Timestamp `json:"timestamp" yaml:"timestamp"`
	Name       string    `json:"name" yaml:"name"`
	Target     string    `json:"target" yaml:"target"`
	DurationMS *float64  `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	ID         string    `json:"id" yaml:"id" table:"wide"`
}

// MetricEntry is a telemetry metric sample.
type MetricEntry struct {
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`
	Name      string    `json:"name" yaml:"name"`
	Value     float64   `json:"value" yaml:"value"`
	Unit      string    `json:"unit,omitempty" yaml:"unit,omitempty"`
	ID        string    `json:"id" yaml:"id" table:"wide"`
}

func telemetryPath(kind string, limit int) string {
	if limit <= 0 {
		limit = DefaultTelemetryLimit
	}
	return fmt.Sprintf("%s/%s/?limit=%d", TelemetryBase, kind, limit)
}

// ListLogs returns up to limit recent log records (DefaultTelemetryLimit if limit <= 0).
func (c *Client) ListLogs(ctx context.Context, limit int) ([]LogEntry, error) {
	var logs []LogEntry
	if err := c.gw.Do(ctx, http.MethodGet, telemetryPath("Log", limit), nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListSpans returns up to limit recent spans.
func (c *Client) ListSpans(ctx context.Context, limit int) ([]SpanEntry, error) {
	var spans []SpanEntry
	if err := c.gw.Do(ctx, http.MethodGet, telemetryPath("Span", limit), nil, &spans); err != nil {
		return nil, err
	}
	return spans, nil
}

// ListMetrics returns up to limit recent metric samples.
func (c *Client) ListMetrics(ctx context.Context, limit int) ([]MetricEntry, error) {
	var metrics []MetricEntry
	if err := c.gw.Do(ctx, http.MethodGet, telemetryPath("Metric", limit), nil, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// FilterLogsForApp keeps logs whose target or message mentions appID,
// at most AppTelemetryLimit of them.
func FilterLogsForApp(logs []LogEntry, appID string) []LogEntry {
	return filterCapped(logs, func(l LogEntry) bool {
		return strings.Contains(l.Target, appID) || strings.Contains(l.Message, appID)
	})
}

// FilterSpansForApp keeps spans whose target or name mentions appID.
func FilterSpansForApp(spans []SpanEntry, appID string) []SpanEntry {
	return filterCapped(spans, func(s SpanEntry) bool {
		return strings.Contains(s.Target, appID) || strings.Contains(s.Name, appID)
	})
}

// FilterMetricsForApp keeps metrics whose name mentions appID.
func FilterMetricsForApp(metrics []MetricEntry, appID string) []MetricEntry {
	return filterCapped(metrics, func(m MetricEntry) bool {
		return strings.Contains(m.Name, appID)
	})
}

func filterCapped[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, AppTelemetryLimit)
	for _, item := range items {
		if len(out) == AppTelemetryLimit {
			break
		}
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// AppTelemetry is the recent telemetry of one application.
type AppTelemetry struct {
	Logs    []LogEntry    `json:"logs" yaml:"logs"`
	Spans   []SpanEntry   `json:"spans" yaml:"spans"`
	Metrics []MetricEntry `json:"metrics" yaml:"metrics"`
}

// AppTelemetry fetches recent telemetry and keeps what mentions appID. A
// stream that cannot be fetched is empty, unless the session expired.
func (c *Client) AppTelemetry(ctx context.Context, appID string) (AppTelemetry, error) {
	var at AppTelemetry

	logs, err := c.ListLogs(ctx, DefaultTelemetryLimit)
	if err := sessionErr(err); err != nil {
		return AppTelemetry{}, err
	}
	at.Logs = FilterLogsForApp(logs, appID)

	spans, err := c.ListSpans(ctx, DefaultTelemetryLimit)
	if err := sessionErr(err); err != nil {
		return AppTelemetry{}, err
	}
	at.Spans = FilterSpansForApp(spans, appID)

	metrics, err := c.ListMetrics(ctx, DefaultTelemetryLimit)
	if err := sessionErr(err); err != nil {
		return AppTelemetry{}, err
	}
	at.Metrics = FilterMetricsForApp(metrics, appID)

	return at, nil
}
