// Package metrics provides Prometheus-compatible metrics for the mock server.
//
// Counters and histograms are exposed in the Prometheus text format
// (text/plain; version=0.0.4) by Registry.Handler.
//
//	registry := metrics.NewRegistry()
//	m := metrics.NewServer(registry)
//	m.Observe("GET", 200, 0, elapsed)
//	http.Handle("/metrics", registry.Handler())
package metrics
