// Package portalkit implements the client side of a customer-portal session:
// magic-link validation, memory-only session state, inactivity and
// refresh-before-expiry timers, device fingerprinting, and an authenticated
// request gateway for the portal's domain operations (booking, messages,
// payments, healing tracker).
//
// The package is designed for concurrent callers: Client methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// portalkit is the public surface. It exposes [Client], [Builder], [Config],
// and value types (Booking, Message, MetricsSnapshot, etc.). Session state,
// fingerprinting, and transport live in the session, fingerprint, and gateway
// sub-packages; timer plumbing, metrics, and audit dispatch live under
// internal/ and are never exported directly.
//
// # What this package must NOT do
//
//   - Persist the session token anywhere. The session lives in process memory
//     only and is lost when the process ends.
//   - Retry, cache, or queue gateway requests. Every call is a single attempt;
//     only RefreshSession may retry, and only when configured to.
//   - Let a stale timer act on a replaced session. Every fired callback
//     re-checks the session epoch before doing anything.
package portalkit
