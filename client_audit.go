package portalkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventValidateSuccess      = "validate_success"
	auditEventValidateFailure      = "validate_failure"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventRefreshRetried       = "refresh_retried"
	auditEventLogout               = "logout"
	auditEventInactivityTimeout    = "inactivity_timeout"
	auditEventFingerprintGenerated = "fingerprint_generated"
)

// AuditErrorCode defines a public type used by portalkit APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrNoSession        AuditErrorCode = "no_session"
	auditErrMagicLinkInvalid AuditErrorCode = "magic_link_invalid"
	auditErrSessionRejected  AuditErrorCode = "session_rejected"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrRejected         AuditErrorCode = "request_rejected"
	auditErrPermissionDenied AuditErrorCode = "permission_denied"
	auditErrMalformed        AuditErrorCode = "malformed_response"
	auditErrClientClosed     AuditErrorCode = "client_closed"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	bookingID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	fp, _ := c.fpCache.Get()

	event := AuditEvent{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		BookingID:   bookingID,
		Fingerprint: fp,
		Success:     success,
		Metadata:    metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNoSession):
		return auditErrNoSession
	case errors.Is(err, ErrMagicLinkInvalid):
		return auditErrMagicLinkInvalid
	case errors.Is(err, ErrSessionRejected):
		return auditErrSessionRejected
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrRequestRejected):
		return auditErrRejected
	case errors.Is(err, ErrPermissionDenied):
		return auditErrPermissionDenied
	case errors.Is(err, ErrMalformedResponse):
		return auditErrMalformed
	case errors.Is(err, ErrClientClosed):
		return auditErrClientClosed
	default:
		return auditErrInternal
	}
}
