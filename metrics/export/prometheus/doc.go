// Package prometheus provides Prometheus collectors for portalkit metrics.
//
// [NewPrometheusExporter] accepts a [portalkit.Client] and exposes an [http.Handler]
// that renders all portalkit counters and histograms in Prometheus text exposition
// format. Counter names are prefixed portalkit_*_total; the single histogram is
// portalkit_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate client state.
package prometheus
