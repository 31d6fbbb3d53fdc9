package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Header names of the backend-for-frontend contract.
const (
	HeaderFingerprint  = "x-fingerprint"
	HeaderSessionToken = "x-session-token"
	HeaderAPIKey       = "apikey"
	HeaderRequestID    = "x-request-id"
)

// ErrInvalidBaseURL is an exported constant or variable used by the portal client.
var ErrInvalidBaseURL = errors.New("invalid gateway base url")

// TokenSource supplies the current session token. An empty string means no
// session is held and the token header is omitted.
type TokenSource interface {
	Token() string
}

// FingerprintSource supplies the cached device fingerprint.
type FingerprintSource interface {
	Get() (string, bool)
}

// FileUpload describes one file part of a multipart request.
type FileUpload struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Response carries the HTTP status and the parsed JSON body of one gateway
// round-trip. The gateway reports transport failures as errors; every
// received HTTP response — success or rejection — becomes a Response for the
// caller to interpret.
type Response struct {
	Status int
	Body   json.RawMessage

	// ErrorMessage is the backend's {error} field when present. Populated on
	// any status for uniformity; meaningful on non-2xx answers.
	ErrorMessage string
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Config defines a public type used by portalkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// BaseURL is the backend-for-frontend entry point, without the action
	// query parameter.
	BaseURL string

	// APIKey is the static backend access key sent on every request.
	APIKey string
}

// Gateway sends authenticated requests to the backend-for-frontend.
// It is safe for concurrent use.
type Gateway struct {
	baseURL      *url.URL
	apiKey       string
	client       *http.Client
	tokens       TokenSource
	fingerprints FingerprintSource
}

// New creates a [Gateway]. client may be nil, in which case
// [http.DefaultClient] is used; request timeouts remain the transport's own.
func New(cfg Config, client *http.Client, tokens TokenSource, fingerprints FingerprintSource) (*Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Gateway{
		baseURL:      base,
		apiKey:       cfg.APIKey,
		client:       client,
		tokens:       tokens,
		fingerprints: fingerprints,
	}, nil
}

// DoJSON sends one JSON request for the given action and returns the parsed
// response. payload may be nil for bodyless actions. Exactly one attempt is
// made; a transport failure is returned as an error with no Response.
//
// DoJSON may return an error when input validation, dependency calls, or security checks fail.
// DoJSON does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *Gateway) DoJSON(ctx context.Context, action string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := g.newRequest(ctx, http.MethodPost, action, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return g.send(req)
}

// Get sends one bodyless GET request for the given action and returns the
// parsed response. Read-only actions use this path; the common header set is
// identical to JSON calls.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *Gateway) Get(ctx context.Context, action string) (*Response, error) {
	req, err := g.newRequest(ctx, http.MethodGet, action, nil)
	if err != nil {
		return nil, err
	}

	return g.send(req)
}

// DoMultipart sends one multipart/form-data request for the given action.
// The multipart writer sets the content type with its boundary; the common
// header set is otherwise identical to JSON calls.
//
// DoMultipart may return an error when input validation, dependency calls, or security checks fail.
// DoMultipart does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *Gateway) DoMultipart(ctx context.Context, action string, fields map[string]string, file *FileUpload) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	if file != nil {
		part, err := mw.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := g.newRequest(ctx, http.MethodPost, action, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return g.send(req)
}

func (g *Gateway) newRequest(ctx context.Context, method, action string, body io.Reader) (*http.Request, error) {
	if strings.TrimSpace(action) == "" {
		return nil, errors.New("empty gateway action")
	}

	u := *g.baseURL
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set(HeaderAPIKey, g.apiKey)
	req.Header.Set(HeaderRequestID, requestID(ctx))

	if g.fingerprints != nil {
		if fp, ok := g.fingerprints.Get(); ok {
			req.Header.Set(HeaderFingerprint, fp)
		}
	}
	if g.tokens != nil {
		if token := g.tokens.Token(); token != "" {
			req.Header.Set(HeaderSessionToken, token)
		}
	}

	return req, nil
}

func (g *Gateway) send(req *http.Request) (*Response, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	out := &Response{Status: resp.StatusCode}
	if len(data) > 0 {
		out.Body = json.RawMessage(data)

		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &envelope); err == nil {
			out.ErrorMessage = envelope.Error
		}
	}

	return out, nil
}

type requestIDContextKey struct{}

// WithRequestID attaches an explicit request identifier to ctx, overriding
// the generated one. Used to correlate SDK calls with backend logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestID(ctx context.Context) string {
	if ctx != nil {
		if id, _ := ctx.Value(requestIDContextKey{}).(string); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
