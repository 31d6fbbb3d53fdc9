package portalkit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestValidateMagicLinkEstablishesSession(t *testing.T) {
	fx := newBackendFixture()
	client := newTestClient(t, fx, nil)

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if !client.IsAuthenticated() {
		t.Fatal("expected authenticated state after validation")
	}
	if id, ok := client.BookingID(); !ok || id != "b1" {
		t.Fatalf("expected booking b1, got %q ok=%v", id, ok)
	}
	booking, ok := client.CachedBooking()
	if !ok || booking.ID != "b1" {
		t.Fatalf("expected cached booking b1, got %+v ok=%v", booking, ok)
	}
	perms, ok := client.Permissions()
	if !ok || !perms.CanView {
		t.Fatalf("expected can_view permission, got %+v ok=%v", perms, ok)
	}

	if _, err := client.FetchMessages(context.Background()); err != nil {
		t.Fatalf("fetch messages failed: %v", err)
	}
	if got := fx.tokenSeen("get-messages"); got != "abc" {
		t.Fatalf("expected session token abc on accessor call, got %q", got)
	}
}

func TestValidateMagicLinkRejectionLeavesNoSession(t *testing.T) {
	fx := newBackendFixture()
	client := newTestClient(t, fx, nil)

	err := client.ValidateMagicLink(context.Background(), "bad")
	if !errors.Is(err, ErrMagicLinkInvalid) {
		t.Fatalf("expected ErrMagicLinkInvalid, got %v", err)
	}
	if client.IsAuthenticated() {
		t.Fatal("rejected validation must not establish a session")
	}
}

func TestValidateEmptyTokenMakesNoNetworkCall(t *testing.T) {
	fx := newBackendFixture()
	client := newTestClient(t, fx, nil)

	if err := client.ValidateMagicLink(context.Background(), ""); !errors.Is(err, ErrMagicLinkInvalid) {
		t.Fatalf("expected ErrMagicLinkInvalid, got %v", err)
	}
	if n := fx.totalCalls(); n != 0 {
		t.Fatalf("expected zero network calls, got %d", n)
	}
}

func TestRefreshUpdatesSession(t *testing.T) {
	fx := newBackendFixture()
	client := newTestClient(t, fx, nil)

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if err := client.RefreshSession(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if !client.IsAuthenticated() {
		t.Fatal("refresh success must keep the session")
	}

	if _, err := client.FetchBooking(context.Background()); err != nil {
		t.Fatalf("fetch booking failed: %v", err)
	}
	if got := fx.tokenSeen("get-booking"); got != "abc2" {
		t.Fatalf("expected rotated token abc2 on accessor call, got %q", got)
	}
}

func TestRefreshRejectionClearsSession(t *testing.T) {
	fx := newBackendFixture()
	fx.refreshStatus = http.StatusUnauthorized
	client := newTestClient(t, fx, nil)

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	err := client.RefreshSession(context.Background())
	if !errors.Is(err, ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}
	if client.IsAuthenticated() {
		t.Fatal("refresh rejection must clear the session")
	}
	if _, ok := client.CachedBooking(); ok {
		t.Fatal("refresh rejection must clear cached booking state")
	}
	if fx.count("logout") != 1 {
		t.Fatalf("expected one best-effort logout notification, got %d", fx.count("logout"))
	}
}

func TestRefreshWithoutSessionMakesNoNetworkCall(t *testing.T) {
	fx := newBackendFixture()
	client := newTestClient(t, fx, nil)

	if err := client.RefreshSession(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if n := fx.totalCalls(); n != 0 {
		t.Fatalf("expected zero network calls, got %d", n)
	}
}

// flakyTransport fails round-trips at the transport level while armed, then
// delegates to the real transport.
type flakyTransport struct {
	mu       sync.Mutex
	failures int
	delegate http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if fail {
		return nil, errors.New("connection reset")
	}
	return f.delegate.RoundTrip(req)
}

func (f *flakyTransport) arm(failures int) {
	f.mu.Lock()
	f.failures = failures
	f.mu.Unlock()
}

func newFlakyClient(t *testing.T, fx *backendFixture, retries int) (*Client, *flakyTransport) {
	t.Helper()

	srv := httptest.NewServer(fx.handler())
	t.Cleanup(srv.Close)

	ft := &flakyTransport{delegate: srv.Client().Transport}

	cfg := defaultConfig()
	cfg.Gateway.BaseURL = srv.URL
	cfg.Gateway.APIKey = "test-key"
	cfg.Session.TransientRefreshRetries = retries

	client, err := New().
		WithConfig(cfg).
		WithHTTPClient(&http.Client{Transport: ft}).
		WithSignalSource(fixedSignalSource()).
		Build()
	if err != nil {
		t.Fatalf("client construction failed: %v", err)
	}
	t.Cleanup(client.Close)

	return client, ft
}

func TestRefreshTransientFailureRetriesWhenConfigured(t *testing.T) {
	fx := newBackendFixture()
	client, ft := newFlakyClient(t, fx, 1)

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	ft.arm(1)
	if err := client.RefreshSession(context.Background()); err != nil {
		t.Fatalf("refresh with one retry budget should survive one transport failure: %v", err)
	}
	if !client.IsAuthenticated() {
		t.Fatal("session must survive a retried transient failure")
	}
}

func TestRefreshTransientFailureLogsOutByDefault(t *testing.T) {
	fx := newBackendFixture()
	client, ft := newFlakyClient(t, fx, 0)

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	ft.arm(2)
	err := client.RefreshSession(context.Background())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if client.IsAuthenticated() {
		t.Fatal("default policy must log out on any refresh failure")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	fx := newBackendFixture()
	client := newTestClient(t, fx, nil)

	// No session yet: logout must be a silent no-op.
	client.Logout(context.Background())
	if n := fx.totalCalls(); n != 0 {
		t.Fatalf("logout without session must not call the backend, got %d calls", n)
	}

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if _, err := client.FetchMessages(context.Background()); err != nil {
		t.Fatalf("fetch messages failed: %v", err)
	}

	client.Logout(context.Background())
	client.Logout(context.Background())

	if client.IsAuthenticated() {
		t.Fatal("logout must clear the session")
	}
	if got := len(client.CachedMessages()); got != 0 {
		t.Fatalf("logout must clear cached messages, %d left", got)
	}
	if client.UnreadCount() != 0 {
		t.Fatal("logout must reset the unread count")
	}
	if fx.count("logout") != 1 {
		t.Fatalf("expected exactly one logout notification, got %d", fx.count("logout"))
	}
}

func TestUnreadCountTracksFetchedThread(t *testing.T) {
	fx := newBackendFixture()
	client := newTestClient(t, fx, nil)

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	msgs, err := client.FetchMessages(context.Background())
	if err != nil {
		t.Fatalf("fetch messages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if client.UnreadCount() != 1 {
		t.Fatalf("expected 1 unread message, got %d", client.UnreadCount())
	}
}

func TestMetricsTrackLifecycle(t *testing.T) {
	fx := newBackendFixture()
	client := newTestClient(t, fx, nil)

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	client.Logout(context.Background())

	snap := client.MetricsSnapshot()
	if snap.Counters[MetricValidateSuccess] != 1 {
		t.Fatalf("expected 1 validate success, got %d", snap.Counters[MetricValidateSuccess])
	}
	if snap.Counters[MetricSessionEstablished] != 1 {
		t.Fatalf("expected 1 session established, got %d", snap.Counters[MetricSessionEstablished])
	}
	if snap.Counters[MetricLogout] != 1 {
		t.Fatalf("expected 1 logout, got %d", snap.Counters[MetricLogout])
	}
	if snap.Counters[MetricFingerprintGenerated] != 1 {
		t.Fatalf("expected 1 fingerprint generation, got %d", snap.Counters[MetricFingerprintGenerated])
	}
}

func TestLatencyHistogramRecordsElapsedTime(t *testing.T) {
	fx := newBackendFixture()
	fx.delay = 30 * time.Millisecond

	srv := httptest.NewServer(fx.handler())
	t.Cleanup(srv.Close)

	cfg := defaultConfig()
	cfg.Gateway.BaseURL = srv.URL
	cfg.Gateway.APIKey = "test-key"

	client, err := New().
		WithConfig(cfg).
		WithHTTPClient(srv.Client()).
		WithSignalSource(fixedSignalSource()).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("client construction failed: %v", err)
	}
	t.Cleanup(client.Close)

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	buckets := client.MetricsSnapshot().Histograms[MetricRequestLatency]
	if len(buckets) == 0 {
		t.Fatal("expected latency histogram buckets")
	}

	var total uint64
	for _, n := range buckets {
		total += n
	}
	if total != 1 {
		t.Fatalf("expected exactly 1 latency sample, got %d", total)
	}

	// A 30ms backend cannot land in the <=25ms buckets; a sample there means
	// the elapsed time was captured at arm time instead of completion.
	for i := 0; i < 3; i++ {
		if buckets[i] != 0 {
			t.Fatalf("expected no samples in bucket %d for a 30ms round-trip, got %d", i, buckets[i])
		}
	}
}

func TestAuditEventsEmitted(t *testing.T) {
	fx := newBackendFixture()
	sink := NewChannelSink(16)

	srv := httptest.NewServer(fx.handler())
	t.Cleanup(srv.Close)

	cfg := defaultConfig()
	cfg.Gateway.BaseURL = srv.URL
	cfg.Gateway.APIKey = "test-key"
	cfg.Audit.Enabled = true

	client, err := New().
		WithConfig(cfg).
		WithHTTPClient(srv.Client()).
		WithSignalSource(fixedSignalSource()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("client construction failed: %v", err)
	}

	if err := client.ValidateMagicLink(context.Background(), "tok123"); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	client.Close()

	deadline := time.After(2 * time.Second)
	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case ev := <-sink.Events():
			seen[ev.EventType] = true
		case <-deadline:
			t.Fatalf("timed out waiting for audit events, saw %v", seen)
		}
	}
	if !seen[auditEventFingerprintGenerated] || !seen[auditEventValidateSuccess] {
		t.Fatalf("expected fingerprint and validate audit events, saw %v", seen)
	}
}
