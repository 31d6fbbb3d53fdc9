package portalkit

import (
	"errors"

	"github.com/inkfold/portalkit/gateway"
	"github.com/inkfold/portalkit/session"
)

var (
	// ErrNoSession is an exported constant or variable used by the portal session client.
	ErrNoSession = session.ErrNoSession
	// ErrInvalidBaseURL is an exported constant or variable used by the portal session client.
	ErrInvalidBaseURL = gateway.ErrInvalidBaseURL

	// ErrMagicLinkInvalid is an exported constant or variable used by the portal session client.
	ErrMagicLinkInvalid = errors.New("magic link invalid")
	// ErrSessionRejected is an exported constant or variable used by the portal session client.
	ErrSessionRejected = errors.New("session rejected by backend")
	// ErrBackendUnavailable is an exported constant or variable used by the portal session client.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrRequestRejected is an exported constant or variable used by the portal session client.
	ErrRequestRejected = errors.New("request rejected by backend")
	// ErrPermissionDenied is an exported constant or variable used by the portal session client.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrClientClosed is an exported constant or variable used by the portal session client.
	ErrClientClosed = errors.New("client closed")
	// ErrMalformedResponse is an exported constant or variable used by the portal session client.
	ErrMalformedResponse = errors.New("malformed backend response")
)
