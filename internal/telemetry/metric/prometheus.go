package metric

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "yeti_admin"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Gateway metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionTransitions *prometheus.CounterVec
	SessionsExpired    prometheus.Counter
	LoginAttempts      *prometheus.CounterVec

	// Credential storage metrics
	CredentialWrites *prometheus.CounterVec
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Admin API requests by method and status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Admin API request latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session state transitions.",
		}, []string{"from", "to"}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions ended by a 401 from the server.",
		}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		CredentialWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_writes_total",
			Help:      "Durable credential writes by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.SessionTransitions,
		r.SessionsExpired,
		r.LoginAttempts,
		r.CredentialWrites,
	)

	return r
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.Gatherers{}
	}
	return r.registry
}

// RegisterSessionState adds a collector that reports the current session
// state on every gather.
func (r *Registry) RegisterSessionState(fn StateFunc) error {
	if r == nil {
		return nil
	}
	return r.registry.Register(NewCollector(fn))
}

// RecordRequest counts one gateway call.
func (r *Registry) RecordRequest(method string, status int) {
	if r == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = fmt.Sprintf("%d", status)
	}
	r.RequestsTotal.WithLabelValues(method, label).Inc()
}

// ObserveRequestDuration records the latency of one gateway call.
func (r *Registry) ObserveRequestDuration(method string, seconds float64) {
	if r == nil {
		return
	}
	r.RequestDuration.WithLabelValues(method).Observe(seconds)
}

// RecordTransition counts a session state change.
func (r *Registry) RecordTransition(from, to string) {
	if r == nil {
		return
	}
	r.SessionTransitions.WithLabelValues(from, to).Inc()
}

// IncSessionExpired counts a session ended by the server.
func (r *Registry) IncSessionExpired() {
	if r == nil {
		return
	}
	r.SessionsExpired.Inc()
}

// RecordLogin counts a login attempt. result is "success" or "failure".
func (r *Registry) RecordLogin(result string) {
	if r == nil {
		return
	}
	r.LoginAttempts.WithLabelValues(result).Inc()
}

// RecordCredentialWrite counts a durable credential write ("set" or "delete").
func (r *Registry) RecordCredentialWrite(op string) {
	if r == nil {
		return
	}
	r.CredentialWrites.WithLabelValues(op).Inc()
}

// WriteTextfile writes all metrics to path in the textfile collector
// format. The write is atomic.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
