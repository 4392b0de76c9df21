// Package prometheus exposes sessiongate engine metrics through
// prometheus/client_golang.
//
// [Collector] implements prometheus.Collector and reads the engine snapshot
// on every scrape. Counters are named sessiongate_*_total; the single
// histogram is sessiongate_evaluate_latency_seconds. [Handler] serves the
// collector from its own registry, never the global one.
package prometheus
