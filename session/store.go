package session

import (
	"errors"
	"sync"
	"time"
)

// ErrEpochMismatch is an exported constant or variable used by the portal client.
var ErrEpochMismatch = errors.New("session epoch mismatch")

// ErrNoSession is an exported constant or variable used by the portal client.
var ErrNoSession = errors.New("no active session")

// Store is the in-memory holder of the single portal session. All reads and
// writes are serialized through an internal mutex so that the at-most-one-writer
// invariant holds in a genuinely multi-threaded runtime.
//
// Sessions live exclusively in volatile memory: a process restart always
// returns the store to the unauthenticated state.
type Store struct {
	mu    sync.Mutex
	sess  *Session
	epoch uint64
}

// NewStore creates an empty session [Store] in the unauthenticated state.
func NewStore() *Store {
	return &Store{}
}

// Begin installs a new session, replacing any existing one, and returns the
// epoch associated with it. The epoch advances on every Begin and Clear so
// that stale callbacks can detect that their session is gone.
//
// Begin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Begin(sess Session) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.CreatedAt == 0 {
		sess.CreatedAt = time.Now().Unix()
	}

	s.epoch++
	copied := sess
	s.sess = &copied
	return s.epoch
}

// Snapshot returns a copy of the current session, its epoch, and whether a
// session is held at all. Callers must treat the copy as read-only state that
// may already be stale by the time they act on it; Update and Clear are the
// only ways to write back.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Snapshot() (Session, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return Session{}, s.epoch, false
	}
	return *s.sess, s.epoch, true
}

// Update atomically replaces token, expiry, and permissions of the current
// session, provided the session from the given epoch is still the one held.
// It returns [ErrNoSession] when the store is empty and [ErrEpochMismatch]
// when the session was replaced or cleared since the epoch was captured —
// in both cases the update is discarded without side effects.
//
// Update may return an error when input validation, dependency calls, or security checks fail.
func (s *Store) Update(epoch uint64, token string, expiresAt int64, perms Permissions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return ErrNoSession
	}
	if s.epoch != epoch {
		return ErrEpochMismatch
	}

	s.sess.Token = token
	s.sess.ExpiresAt = expiresAt
	s.sess.Permissions = perms
	return nil
}

// Clear removes the current session, if any, and advances the epoch. It is
// idempotent: clearing an empty store is a no-op apart from the epoch bump.
// The removed session is returned so callers can run best-effort teardown
// (such as notifying the backend) with its token.
//
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Clear() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	if s.sess == nil {
		return Session{}, false
	}

	removed := *s.sess
	s.sess = nil
	return removed, true
}

// Active reports whether a session is currently held. This is the sole input
// to the client's notion of "authenticated".
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess != nil
}

// Epoch returns the current epoch counter.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Token returns the current session token, or the empty string when no
// session is held. The gateway uses it to decide whether to attach the
// x-session-token header.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return ""
	}
	return s.sess.Token
}
