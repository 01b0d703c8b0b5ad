package metric

import "github.com/prometheus/client_golang/prometheus"

// StateFunc returns the current session state name.
type StateFunc func() string

// SessionStates lists every value StateFunc may return.
var SessionStates = []string{"unknown", "authenticated", "unauthenticated"}

// Collector reports the live session state as a one-hot gauge.
type Collector struct {
	state StateFunc
	desc  *prometheus.Desc
}

// NewCollector creates a collector backed by fn.
func NewCollector(fn StateFunc) *Collector {
	return &Collector{
		state: fn,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "state"),
			"Current session state (1 for the active state).",
			[]string{"state"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	current := c.state()
	for _, s := range SessionStates {
		v := 0.0
		if s == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, v, s)
	}
}
