package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

type staticFingerprint string

func (s staticFingerprint) Get() (string, bool) { return string(s), s != "" }

func newTestGateway(t *testing.T, handler http.HandlerFunc, token, fp string) (*Gateway, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := New(Config{BaseURL: srv.URL, APIKey: "test-key"}, srv.Client(), staticTokens(token), staticFingerprint(fp))
	if err != nil {
		t.Fatalf("gateway construction failed: %v", err)
	}
	return g, srv
}

func TestDoJSONAttachesHeaders(t *testing.T) {
	var gotAction, gotToken, gotFP, gotKey, gotCT, gotReqID string

	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Query().Get("action")
		gotToken = r.Header.Get(HeaderSessionToken)
		gotFP = r.Header.Get(HeaderFingerprint)
		gotKey = r.Header.Get(HeaderAPIKey)
		gotCT = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, "abc", "fp-hex")

	resp, err := g.DoJSON(context.Background(), "get-booking", map[string]string{"x": "y"})
	if err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("expected 2xx, got %d", resp.Status)
	}

	if gotAction != "get-booking" {
		t.Fatalf("expected action=get-booking, got %q", gotAction)
	}
	if gotToken != "abc" {
		t.Fatalf("expected session token header abc, got %q", gotToken)
	}
	if gotFP != "fp-hex" {
		t.Fatalf("expected fingerprint header, got %q", gotFP)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected apikey header, got %q", gotKey)
	}
	if gotCT != "application/json" {
		t.Fatalf("expected json content type, got %q", gotCT)
	}
	if gotReqID == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestGetIssuesBodylessRequestWithHeaders(t *testing.T) {
	var gotMethod, gotAction, gotToken, gotCT string
	var gotBody []byte

	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAction = r.URL.Query().Get("action")
		gotToken = r.Header.Get(HeaderSessionToken)
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, "abc", "fp-hex")

	resp, err := g.Get(context.Background(), "get-messages")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("expected 2xx, got %d", resp.Status)
	}

	if gotMethod != http.MethodGet {
		t.Fatalf("expected GET, got %s", gotMethod)
	}
	if gotAction != "get-messages" {
		t.Fatalf("expected action=get-messages, got %q", gotAction)
	}
	if gotToken != "abc" {
		t.Fatalf("expected session token header abc, got %q", gotToken)
	}
	if gotCT != "" {
		t.Fatalf("expected no content type on GET, got %q", gotCT)
	}
	if len(gotBody) != 0 {
		t.Fatalf("expected empty body on GET, got %d bytes", len(gotBody))
	}
}

func TestDoJSONOmitsTokenPreAuth(t *testing.T) {
	var tokenPresent bool

	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, tokenPresent = r.Header[http.CanonicalHeaderKey(HeaderSessionToken)]
		w.WriteHeader(http.StatusOK)
	}, "", "fp-hex")

	if _, err := g.DoJSON(context.Background(), "validate-magic-link", map[string]string{"token": "t"}); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if tokenPresent {
		t.Fatal("session token header must be omitted pre-auth")
	}
}

func TestDoJSONSurfacesBackendError(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"session invalid"}`))
	}, "abc", "fp")

	resp, err := g.DoJSON(context.Background(), "refresh-session", nil)
	if err != nil {
		t.Fatalf("non-2xx must not be a transport error: %v", err)
	}
	if resp.OK() {
		t.Fatal("401 must not report OK")
	}
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Status)
	}
	if resp.ErrorMessage != "session invalid" {
		t.Fatalf("expected parsed error message, got %q", resp.ErrorMessage)
	}
}

func TestDoJSONSingleAttempt(t *testing.T) {
	var calls atomic.Int64

	g, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, "abc", "fp")
	_ = srv

	if _, err := g.DoJSON(context.Background(), "get-messages", nil); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("gateway must make exactly one attempt, made %d", got)
	}
}

func TestDoMultipartBuildsForm(t *testing.T) {
	var gotCT string
	var gotFile string
	var gotField string

	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		gotField = r.FormValue("entry_id")
		f, header, err := r.FormFile("photo")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer func() { _ = f.Close() }()
		data, _ := io.ReadAll(f)
		gotFile = header.Filename + ":" + string(data)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"uploaded":true}`))
	}, "abc", "fp")

	resp, err := g.DoMultipart(context.Background(), "upload-healing-photo",
		map[string]string{"entry_id": "h1"},
		&FileUpload{Field: "photo", Filename: "day3.jpg", Content: strings.NewReader("jpegbytes")})
	if err != nil {
		t.Fatalf("DoMultipart failed: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("expected 2xx, got %d", resp.Status)
	}

	if !strings.HasPrefix(gotCT, "multipart/form-data; boundary=") {
		t.Fatalf("expected multipart content type with boundary, got %q", gotCT)
	}
	if gotField != "h1" {
		t.Fatalf("expected entry_id field, got %q", gotField)
	}
	if gotFile != "day3.jpg:jpegbytes" {
		t.Fatalf("unexpected file payload: %q", gotFile)
	}
}

func TestWithRequestIDOverride(t *testing.T) {
	var gotReqID string

	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotReqID = r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusOK)
	}, "", "fp")

	ctx := WithRequestID(context.Background(), "req-42")
	if _, err := g.DoJSON(ctx, "get-payments", nil); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if gotReqID != "req-42" {
		t.Fatalf("expected request id override, got %q", gotReqID)
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url"}, nil, nil, nil); !errors.Is(err, ErrInvalidBaseURL) {
		t.Fatalf("expected ErrInvalidBaseURL, got %v", err)
	}
	if _, err := New(Config{BaseURL: ""}, nil, nil, nil); !errors.Is(err, ErrInvalidBaseURL) {
		t.Fatalf("expected ErrInvalidBaseURL for empty url, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	resp := &Response{Status: 200, Body: []byte(`{"booking":{"id":"b1"}}`)}

	var out struct {
		Booking struct {
			ID string `json:"id"`
		} `json:"booking"`
	}
	if err := resp.Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Booking.ID != "b1" {
		t.Fatalf("expected booking b1, got %q", out.Booking.ID)
	}

	empty := &Response{Status: 204}
	if err := empty.Decode(&out); err == nil {
		t.Fatal("decoding an empty body must fail")
	}
}
