package portalkit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkfold/portalkit/fingerprint"
	"github.com/inkfold/portalkit/gateway"
	"github.com/inkfold/portalkit/internal/timers"
	"github.com/inkfold/portalkit/session"
)

// Client defines a public type used by portalkit APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	config Config

	store       *session.Store
	gw          *gateway.Gateway
	fpGenerator *fingerprint.Generator
	fpCache     *fingerprint.Cache

	inactivity *timers.Timer
	refresh    *timers.Timer

	audit   *auditDispatcher
	metrics *Metrics
	logger  logrus.FieldLogger

	// mu guards the cached domain state and the closed flag. The session
	// itself is guarded inside session.Store; in-flight completions are
	// reconciled through its epoch counter, not through this mutex.
	mu      sync.Mutex
	closed  bool
	booking *Booking
	msgs    []Message
	unread  int
	pays    []Payment
	healing []HealingEntry
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Close() {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.inactivity.Stop()
	c.refresh.Stop()

	if c.audit != nil {
		c.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// AuditDroppedByType describes the auditdroppedbytype operation and its observable behavior.
//
// AuditDroppedByType may return an error when input validation, dependency calls, or security checks fail.
// AuditDroppedByType does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDroppedByType() map[string]uint64 {
	if c == nil || c.audit == nil {
		return map[string]uint64{}
	}
	return c.audit.DroppedByType()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.SnapshotNow()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated may return an error when input validation, dependency calls, or security checks fail.
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) IsAuthenticated() bool {
	if c == nil {
		return false
	}
	return c.store.Active()
}

// Permissions describes the permissions operation and its observable behavior.
//
// Permissions may return an error when input validation, dependency calls, or security checks fail.
// Permissions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Permissions() (Permissions, bool) {
	sess, _, ok := c.store.Snapshot()
	if !ok {
		return Permissions{}, false
	}
	return sess.Permissions, true
}

// SessionExpiresAt describes the sessionexpiresat operation and its observable behavior.
//
// SessionExpiresAt may return an error when input validation, dependency calls, or security checks fail.
// SessionExpiresAt does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) SessionExpiresAt() (time.Time, bool) {
	sess, _, ok := c.store.Snapshot()
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(sess.ExpiresAt, 0), true
}

// BookingID describes the bookingid operation and its observable behavior.
//
// BookingID may return an error when input validation, dependency calls, or security checks fail.
// BookingID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) BookingID() (string, bool) {
	sess, _, ok := c.store.Snapshot()
	if !ok {
		return "", false
	}
	return sess.BookingID, true
}

// CachedBooking describes the cachedbooking operation and its observable behavior.
//
// CachedBooking may return an error when input validation, dependency calls, or security checks fail.
// CachedBooking does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CachedBooking() (Booking, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.booking == nil {
		return Booking{}, false
	}
	return *c.booking, true
}

// CachedMessages describes the cachedmessages operation and its observable behavior.
//
// CachedMessages may return an error when input validation, dependency calls, or security checks fail.
// CachedMessages does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CachedMessages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// UnreadCount describes the unreadcount operation and its observable behavior.
//
// UnreadCount may return an error when input validation, dependency calls, or security checks fail.
// UnreadCount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// CachedPayments describes the cachedpayments operation and its observable behavior.
//
// CachedPayments may return an error when input validation, dependency calls, or security checks fail.
// CachedPayments does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CachedPayments() []Payment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Payment, len(c.pays))
	copy(out, c.pays)
	return out
}

// CachedHealingEntries describes the cachedhealingentries operation and its observable behavior.
//
// CachedHealingEntries may return an error when input validation, dependency calls, or security checks fail.
// CachedHealingEntries does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CachedHealingEntries() []HealingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]HealingEntry, len(c.healing))
	copy(out, c.healing)
	return out
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) clearCachedState() {
	c.mu.Lock()
	c.booking = nil
	c.msgs = nil
	c.unread = 0
	c.pays = nil
	c.healing = nil
	c.mu.Unlock()
}

// guard short-circuits authenticated operations: a missing session or a
// denied capability must produce zero network calls.
func (c *Client) guard(need func(Permissions) bool) (session.Session, error) {
	if c.isClosed() {
		return session.Session{}, ErrClientClosed
	}
	sess, _, ok := c.store.Snapshot()
	if !ok {
		c.metricInc(MetricAccessorBounced)
		return session.Session{}, ErrNoSession
	}
	if need != nil && !need(sess.Permissions) {
		c.metricInc(MetricAccessorBounced)
		return session.Session{}, ErrPermissionDenied
	}
	return sess, nil
}

func (c *Client) callGet(ctx context.Context, action string) (*gateway.Response, error) {
	c.metricInc(MetricGatewayRequest)
	if c.metrics != nil && c.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { c.metrics.Observe(MetricRequestLatency, time.Since(start)) }()
	}

	resp, err := c.gw.Get(ctx, action)
	if err != nil {
		c.metricInc(MetricGatewayTransportError)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !resp.OK() {
		c.metricInc(MetricGatewayRejected)
	}
	return resp, nil
}

func (c *Client) callJSON(ctx context.Context, action string, payload any) (*gateway.Response, error) {
	c.metricInc(MetricGatewayRequest)
	if c.metrics != nil && c.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { c.metrics.Observe(MetricRequestLatency, time.Since(start)) }()
	}

	resp, err := c.gw.DoJSON(ctx, action, payload)
	if err != nil {
		c.metricInc(MetricGatewayTransportError)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !resp.OK() {
		c.metricInc(MetricGatewayRejected)
	}
	return resp, nil
}

func (c *Client) callMultipart(ctx context.Context, action string, fields map[string]string, file *gateway.FileUpload) (*gateway.Response, error) {
	c.metricInc(MetricGatewayRequest)
	if c.metrics != nil && c.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { c.metrics.Observe(MetricRequestLatency, time.Since(start)) }()
	}

	resp, err := c.gw.DoMultipart(ctx, action, fields, file)
	if err != nil {
		c.metricInc(MetricGatewayTransportError)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !resp.OK() {
		c.metricInc(MetricGatewayRejected)
	}
	return resp, nil
}

func rejectionError(resp *gateway.Response) error {
	if resp.ErrorMessage != "" {
		return fmt.Errorf("%w: %s", ErrRequestRejected, resp.ErrorMessage)
	}
	return fmt.Errorf("%w: status %d", ErrRequestRejected, resp.Status)
}
