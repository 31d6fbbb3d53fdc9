// Package session holds the single authenticated portal session in process
// memory and guards every mutation behind a mutex.
//
// # Design
//
// The store owns at most one [Session] at a time. Every replacement or
// removal advances a monotonically increasing epoch; callbacks scheduled
// against an earlier session (timers, in-flight refreshes) compare their
// captured epoch against the current one before applying side effects.
//
// # What this package must NOT do
//
//   - Persist the session anywhere: no files, no databases, no browser-style
//     storage. Memory-only residency is a deliberate confidentiality decision.
//   - Perform I/O or network calls.
//   - Import the root package or any sibling package (no import cycles).
package session
