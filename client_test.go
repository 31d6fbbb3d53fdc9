package portalkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/inkfold/portalkit/fingerprint"
	"github.com/inkfold/portalkit/gateway"
)

// backendFixture is a configurable in-process stand-in for the
// backend-for-frontend entry point, keyed by the action query parameter.
type backendFixture struct {
	mu          sync.Mutex
	calls       map[string]int
	lastTokens  map[string]string
	lastMethods map[string]string

	expiresIn        time.Duration
	refreshExpiresIn time.Duration
	refreshStatus    int
	delay            time.Duration
}

func newBackendFixture() *backendFixture {
	return &backendFixture{
		calls:            map[string]int{},
		lastTokens:       map[string]string{},
		lastMethods:      map[string]string{},
		expiresIn:        90 * time.Minute,
		refreshExpiresIn: 90 * time.Minute,
	}
}

func (b *backendFixture) count(action string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[action]
}

func (b *backendFixture) totalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

func (b *backendFixture) tokenSeen(action string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastTokens[action]
}

func (b *backendFixture) methodSeen(action string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastMethods[action]
}

func allPermissions() Permissions {
	return Permissions{
		CanView:       true,
		CanMessage:    true,
		CanUpload:     true,
		CanPay:        true,
		CanReschedule: true,
	}
}

func (b *backendFixture) handler() http.HandlerFunc {
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("action")

		b.mu.Lock()
		b.calls[action]++
		b.lastTokens[action] = r.Header.Get(gateway.HeaderSessionToken)
		b.lastMethods[action] = r.Method
		refreshStatus := b.refreshStatus
		expiresIn := b.expiresIn
		refreshExpiresIn := b.refreshExpiresIn
		delay := b.delay
		b.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		switch action {
		case "validate-magic-link":
			var in struct {
				Token string `json:"token"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in.Token == "bad" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "magic link expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"sessionToken": "abc",
				"expiresAt":    time.Now().Add(expiresIn).Unix(),
				"booking":      Booking{ID: "b1", Status: "confirmed", ArtistName: "Mara"},
				"permissions":  allPermissions(),
			})
		case "refresh-session":
			if refreshStatus != 0 {
				writeJSON(w, refreshStatus, map[string]string{"error": "session invalid"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"sessionToken": "abc2",
				"expiresAt":    time.Now().Add(refreshExpiresIn).Unix(),
				"permissions":  allPermissions(),
			})
		case "logout":
			writeJSON(w, http.StatusOK, map[string]string{})
		case "get-booking":
			writeJSON(w, http.StatusOK, map[string]any{
				"booking": Booking{ID: "b1", Status: "confirmed", DepositPaid: true},
			})
		case "get-messages":
			writeJSON(w, http.StatusOK, map[string]any{
				"messages": []Message{
					{ID: "m1", Sender: "artist", Body: "see you friday", Read: true},
					{ID: "m2", Sender: "artist", Body: "bring id please", Read: false},
				},
			})
		case "send-message":
			var in struct {
				Body string `json:"body"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusOK, map[string]any{
				"message": Message{ID: "m9", Sender: "customer", Body: in.Body, Read: true},
			})
		case "get-payments":
			writeJSON(w, http.StatusOK, map[string]any{
				"payments": []Payment{{ID: "p1", AmountCents: 5000, Currency: "eur", Status: "due"}},
			})
		case "request-payment":
			writeJSON(w, http.StatusOK, map[string]any{
				"payment": Payment{ID: "p1", AmountCents: 5000, Currency: "eur", Status: "pending", PaymentURL: "https://pay.example/p1"},
			})
		case "request-reschedule", "upload-reference", "request-certificate":
			writeJSON(w, http.StatusOK, map[string]string{})
		case "get-healing-entries":
			writeJSON(w, http.StatusOK, map[string]any{
				"entries": []HealingEntry{{ID: "h1", Day: 3, PhotoURL: "https://img.example/h1"}},
			})
		case "upload-healing-photo":
			writeJSON(w, http.StatusOK, map[string]any{
				"entry": HealingEntry{ID: "h2", Day: 4},
			})
		case "analyze-healing-photo-customer":
			var in struct {
				EntryID string `json:"entry_id"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusOK, map[string]any{
				"analysis": HealingAnalysis{EntryID: in.EntryID, Assessment: "healing normally"},
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown action"})
		}
	}
}

func fixedSignalSource() fingerprint.Source {
	return fingerprint.SourceFunc(func() fingerprint.Signals {
		return fingerprint.Signals{
			UserAgent: "portalkit-test",
			Language:  "en-GB",
			Platform:  "test",
		}
	})
}

func newTestClient(t *testing.T, fx *backendFixture, mutate func(*Config)) *Client {
	t.Helper()

	srv := httptest.NewServer(fx.handler())
	t.Cleanup(srv.Close)

	cfg := defaultConfig()
	cfg.Gateway.BaseURL = srv.URL
	cfg.Gateway.APIKey = "test-key"
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := New().
		WithConfig(cfg).
		WithHTTPClient(srv.Client()).
		WithSignalSource(fixedSignalSource()).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("client construction failed: %v", err)
	}
	t.Cleanup(client.Close)

	return client
}
