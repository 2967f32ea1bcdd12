// Package metrics exposes build observability hooks.
//
// The engine takes a Recorder; NoopRecorder is the default, and
// PrometheusRecorder backs the /metrics endpoint of watch mode.
package metrics
