// Package metric provides Prometheus metrics for yeti-admin.
//
// The CLI is short lived, so nothing is scraped. Metrics are collected in
// a private registry and, when metrics.textfile is configured, written in
// the node_exporter textfile format on exit:
//
//   - prometheus.go: registry, request and session metrics, textfile export
//   - collector.go: collector reporting the live session state
//
// All Registry methods are safe on a nil receiver, so components can take
// an optional *Registry.
package metric
