// Package bffstub is an in-process double of the backend-for-frontend the
// portal client talks to. It dispatches on the ?action= query parameter,
// enforces the apikey and x-fingerprint headers, and mints HS256 session
// tokens that it verifies on every authenticated action. The client itself
// still treats tokens as opaque strings.
//
// The stub exists for the integration tests and the portal-probe CLI; it is
// not a reimplementation of the real backend.
//
// # What this package must NOT do
//
//   - Be imported by the root package or any client-side package.
//   - Persist anything — all state is in memory and per-instance.
package bffstub
