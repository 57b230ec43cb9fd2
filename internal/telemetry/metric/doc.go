// Package metric provides Prometheus metrics for confmesh.
//
//   - prometheus.go: load and source collectors, textfile export
//   - collector.go: scrape-time collector for the snapshot store
//
// Every Registry method is safe on a nil *Registry so callers never guard
// metric calls.
package metric
