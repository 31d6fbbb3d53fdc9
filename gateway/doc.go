// Package gateway builds and sends authenticated requests to the single
// backend-for-frontend entry point that fronts all portal operations.
//
// Behavior is selected by the `action` query parameter. Every request carries
// the backend access key, the device fingerprint, and — once a session is
// held — the session token. The gateway performs exactly one attempt per
// call: it does not retry, cache, queue, or interpret failures. Callers
// decide whether a non-2xx answer is a recoverable condition or grounds to
// end the session; the gateway itself never logs a user out.
package gateway
