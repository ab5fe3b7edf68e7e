// Package metrics exposes Prometheus counters and histograms for the
// scheduler, compose backend, and ACL reconciler, plus a small
// component-health registry backing the /health, /ready, and /live
// HTTP endpoints.
package metrics
