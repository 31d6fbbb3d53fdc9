// Package audit defines the audit event model and the sinks that receive
// session-lifecycle events from the portal client's dispatcher.
//
// Sinks must be non-blocking or bounded: the dispatcher forwards events from
// a buffered channel and, when configured to drop on backpressure, counts
// rather than waits.
package audit
