package portalkit

import (
	"io"

	internalaudit "github.com/inkfold/portalkit/internal/audit"
	internalmetrics "github.com/inkfold/portalkit/internal/metrics"
	"github.com/inkfold/portalkit/session"
)

// Permissions is the fixed capability set issued alongside the session token.
// The authoritative copy is server-issued and may change on refresh.
type Permissions = session.Permissions

// Booking is the single booking record a session is scoped to.
type Booking struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ArtistName  string `json:"artist_name"`
	StudioName  string `json:"studio_name"`
	StartsAt    int64  `json:"starts_at"`
	Description string `json:"description"`
	DepositPaid bool   `json:"deposit_paid"`
}

// Message is one entry in the booking's conversation thread.
type Message struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Body   string `json:"body"`
	SentAt int64  `json:"sent_at"`
	Read   bool   `json:"read"`
}

// Payment is a payment record attached to the booking.
type Payment struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	PaymentURL  string `json:"payment_url,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// HealingEntry is one day of the post-appointment healing tracker.
type HealingEntry struct {
	ID        string `json:"id"`
	Day       int    `json:"day"`
	PhotoURL  string `json:"photo_url"`
	Note      string `json:"note"`
	CreatedAt int64  `json:"created_at"`
}

// HealingAnalysis is the backend's assessment of one healing photo.
type HealingAnalysis struct {
	EntryID    string   `json:"entry_id"`
	Assessment string   `json:"assessment"`
	Concerns   []string `json:"concerns"`
	Urgent     bool     `json:"urgent"`
}

// AuditEvent is a structured audit record emitted by the client.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricValidateSuccess is an exported constant or variable used by the portal session client.
	MetricValidateSuccess = MetricID(internalmetrics.MetricValidateSuccess)
	// MetricValidateFailure is an exported constant or variable used by the portal session client.
	MetricValidateFailure = MetricID(internalmetrics.MetricValidateFailure)
	// MetricRefreshSuccess is an exported constant or variable used by the portal session client.
	MetricRefreshSuccess = MetricID(internalmetrics.MetricRefreshSuccess)
	// MetricRefreshFailure is an exported constant or variable used by the portal session client.
	MetricRefreshFailure = MetricID(internalmetrics.MetricRefreshFailure)
	// MetricRefreshRetried is an exported constant or variable used by the portal session client.
	MetricRefreshRetried = MetricID(internalmetrics.MetricRefreshRetried)
	// MetricRefreshScheduled is an exported constant or variable used by the portal session client.
	MetricRefreshScheduled = MetricID(internalmetrics.MetricRefreshScheduled)
	// MetricRefreshImmediate is an exported constant or variable used by the portal session client.
	MetricRefreshImmediate = MetricID(internalmetrics.MetricRefreshImmediate)
	// MetricSessionEstablished is an exported constant or variable used by the portal session client.
	MetricSessionEstablished = MetricID(internalmetrics.MetricSessionEstablished)
	// MetricSessionCleared is an exported constant or variable used by the portal session client.
	MetricSessionCleared = MetricID(internalmetrics.MetricSessionCleared)
	// MetricLogout is an exported constant or variable used by the portal session client.
	MetricLogout = MetricID(internalmetrics.MetricLogout)
	// MetricInactivityLogout is an exported constant or variable used by the portal session client.
	MetricInactivityLogout = MetricID(internalmetrics.MetricInactivityLogout)
	// MetricActivityRecorded is an exported constant or variable used by the portal session client.
	MetricActivityRecorded = MetricID(internalmetrics.MetricActivityRecorded)
	// MetricAccessorBounced is an exported constant or variable used by the portal session client.
	MetricAccessorBounced = MetricID(internalmetrics.MetricAccessorBounced)
	// MetricGatewayRequest is an exported constant or variable used by the portal session client.
	MetricGatewayRequest = MetricID(internalmetrics.MetricGatewayRequest)
	// MetricGatewayTransportError is an exported constant or variable used by the portal session client.
	MetricGatewayTransportError = MetricID(internalmetrics.MetricGatewayTransportError)
	// MetricGatewayRejected is an exported constant or variable used by the portal session client.
	MetricGatewayRejected = MetricID(internalmetrics.MetricGatewayRejected)
	// MetricFingerprintGenerated is an exported constant or variable used by the portal session client.
	MetricFingerprintGenerated = MetricID(internalmetrics.MetricFingerprintGenerated)
	// MetricRequestLatency is an exported constant or variable used by the portal session client.
	MetricRequestLatency = MetricID(internalmetrics.MetricRequestLatency)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
