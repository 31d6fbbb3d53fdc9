package internaldefs

import (
	portalkit "github.com/inkfold/portalkit"
)

// CounterDef defines a public type used by portalkit APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   portalkit.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by portalkit APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   portalkit.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the portal session client.
var CounterDefs = []CounterDef{
	{ID: portalkit.MetricValidateSuccess, Name: "portalkit_validate_success_total", Help: "Successful magic-link validations."},
	{ID: portalkit.MetricValidateFailure, Name: "portalkit_validate_failure_total", Help: "Failed magic-link validations."},
	{ID: portalkit.MetricRefreshSuccess, Name: "portalkit_refresh_success_total", Help: "Successful session refresh operations."},
	{ID: portalkit.MetricRefreshFailure, Name: "portalkit_refresh_failure_total", Help: "Failed session refresh operations."},
	{ID: portalkit.MetricRefreshRetried, Name: "portalkit_refresh_retried_total", Help: "Refresh attempts retried after a transport failure."},
	{ID: portalkit.MetricRefreshScheduled, Name: "portalkit_refresh_scheduled_total", Help: "Refresh timers armed ahead of session expiry."},
	{ID: portalkit.MetricRefreshImmediate, Name: "portalkit_refresh_immediate_total", Help: "Refreshes triggered immediately because expiry was inside the threshold."},
	{ID: portalkit.MetricSessionEstablished, Name: "portalkit_session_established_total", Help: "Established sessions."},
	{ID: portalkit.MetricSessionCleared, Name: "portalkit_session_cleared_total", Help: "Cleared sessions."},
	{ID: portalkit.MetricLogout, Name: "portalkit_logout_total", Help: "Logout operations."},
	{ID: portalkit.MetricInactivityLogout, Name: "portalkit_inactivity_logout_total", Help: "Logouts triggered by the inactivity timer."},
	{ID: portalkit.MetricActivityRecorded, Name: "portalkit_activity_recorded_total", Help: "User activity signals that re-armed the inactivity timer."},
	{ID: portalkit.MetricAccessorBounced, Name: "portalkit_accessor_bounced_total", Help: "Accessor calls bounced before any network request."},
	{ID: portalkit.MetricGatewayRequest, Name: "portalkit_gateway_request_total", Help: "Requests dispatched through the gateway."},
	{ID: portalkit.MetricGatewayTransportError, Name: "portalkit_gateway_transport_error_total", Help: "Gateway requests that failed at the transport layer."},
	{ID: portalkit.MetricGatewayRejected, Name: "portalkit_gateway_rejected_total", Help: "Gateway requests rejected by the backend."},
	{ID: portalkit.MetricFingerprintGenerated, Name: "portalkit_fingerprint_generated_total", Help: "Device fingerprints generated on cache miss."},
}

// HistogramDefs is an exported constant or variable used by the portal session client.
var HistogramDefs = []HistogramDef{
	{ID: portalkit.MetricRequestLatency, Name: "portalkit_request_latency_seconds", Help: "Gateway request latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the portal session client.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the portal session client.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
