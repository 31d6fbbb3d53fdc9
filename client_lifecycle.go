package portalkit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/inkfold/portalkit/session"
)

const (
	actionValidateMagicLink = "validate-magic-link"
	actionRefreshSession    = "refresh-session"
	actionLogout            = "logout"
)

// ValidateMagicLink describes the validatemagiclink operation and its observable behavior.
//
// ValidateMagicLink may return an error when input validation, dependency calls, or security checks fail.
// ValidateMagicLink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ValidateMagicLink(ctx context.Context, token string) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	if token == "" {
		c.metricInc(MetricValidateFailure)
		return ErrMagicLinkInvalid
	}

	c.ensureFingerprint(ctx)

	resp, err := c.callJSON(ctx, actionValidateMagicLink, map[string]string{"token": token})
	if err != nil {
		c.metricInc(MetricValidateFailure)
		c.emitAudit(ctx, auditEventValidateFailure, false, "", err, nil)
		return err
	}
	if !resp.OK() {
		c.metricInc(MetricValidateFailure)
		c.emitAudit(ctx, auditEventValidateFailure, false, "", ErrMagicLinkInvalid, func() map[string]string {
			return map[string]string{
				"status": httpStatusLabel(resp.Status),
				"reason": resp.ErrorMessage,
			}
		})
		if resp.ErrorMessage != "" {
			return errors.Join(ErrMagicLinkInvalid, errors.New(resp.ErrorMessage))
		}
		return ErrMagicLinkInvalid
	}

	var out struct {
		SessionToken string      `json:"sessionToken"`
		ExpiresAt    int64       `json:"expiresAt"`
		Booking      Booking     `json:"booking"`
		Permissions  Permissions `json:"permissions"`
	}
	if err := resp.Decode(&out); err != nil {
		c.metricInc(MetricValidateFailure)
		c.emitAudit(ctx, auditEventValidateFailure, false, "", ErrMalformedResponse, nil)
		return ErrMalformedResponse
	}
	if out.SessionToken == "" || out.Booking.ID == "" {
		c.metricInc(MetricValidateFailure)
		c.emitAudit(ctx, auditEventValidateFailure, false, "", ErrMalformedResponse, nil)
		return ErrMalformedResponse
	}

	epoch := c.store.Begin(session.Session{
		Token:       out.SessionToken,
		ExpiresAt:   out.ExpiresAt,
		BookingID:   out.Booking.ID,
		Permissions: out.Permissions,
	})

	c.mu.Lock()
	booking := out.Booking
	c.booking = &booking
	c.msgs = nil
	c.unread = 0
	c.pays = nil
	c.healing = nil
	c.mu.Unlock()

	c.armInactivity(epoch)
	c.scheduleRefresh(epoch, out.ExpiresAt)

	c.metricInc(MetricSessionEstablished)
	c.metricInc(MetricValidateSuccess)
	c.emitAudit(ctx, auditEventValidateSuccess, true, out.Booking.ID, nil, nil)

	return nil
}

// RefreshSession describes the refreshsession operation and its observable behavior.
//
// RefreshSession may return an error when input validation, dependency calls, or security checks fail.
// RefreshSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RefreshSession(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	sess, epoch, ok := c.store.Snapshot()
	if !ok {
		return ErrNoSession
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.callJSON(ctx, actionRefreshSession, nil)
		if err != nil {
			// Transport failure: retry when the budget allows, end the
			// session otherwise.
			lastErr = err
			if attempt < c.config.Session.TransientRefreshRetries {
				c.metricInc(MetricRefreshRetried)
				c.emitAudit(ctx, auditEventRefreshRetried, false, sess.BookingID, err, nil)
				c.logger.WithError(err).Warn("portalkit: refresh transport failure, retrying")
				continue
			}
			break
		}
		if !resp.OK() {
			// Backend rejection is session-authority: never retried.
			lastErr = ErrSessionRejected
			break
		}

		var out struct {
			SessionToken string      `json:"sessionToken"`
			ExpiresAt    int64       `json:"expiresAt"`
			Permissions  Permissions `json:"permissions"`
		}
		if err := resp.Decode(&out); err != nil || out.SessionToken == "" {
			lastErr = ErrMalformedResponse
			break
		}

		if err := c.store.Update(epoch, out.SessionToken, out.ExpiresAt, out.Permissions); err != nil {
			// The session was replaced or cleared while the refresh was in
			// flight. The completion must not resurrect it.
			return ErrNoSession
		}

		c.scheduleRefresh(epoch, out.ExpiresAt)

		c.metricInc(MetricRefreshSuccess)
		c.emitAudit(ctx, auditEventRefreshSuccess, true, sess.BookingID, nil, nil)
		return nil
	}

	// Any refresh failure that exhausts its budget ends the session, but only
	// if it is still the session this refresh was started for.
	c.metricInc(MetricRefreshFailure)
	c.emitAudit(ctx, auditEventRefreshFailure, false, sess.BookingID, lastErr, nil)
	if c.store.Epoch() == epoch && c.store.Active() {
		c.Logout(ctx)
	}
	return lastErr
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Logout(ctx context.Context) {
	if c == nil {
		return
	}

	sess, _, active := c.store.Snapshot()
	if active {
		// Backend notification is best-effort and must never block or fail
		// the local teardown.
		if resp, err := c.callJSON(ctx, actionLogout, nil); err != nil {
			c.logger.WithError(err).Warn("portalkit: logout notification failed")
		} else if !resp.OK() {
			c.logger.Warn("portalkit: logout notification rejected")
		}
	}

	c.inactivity.Stop()
	c.refresh.Stop()

	_, removed := c.store.Clear()
	c.fpCache.Clear()
	c.clearCachedState()

	if removed {
		c.metricInc(MetricSessionCleared)
		c.metricInc(MetricLogout)
		c.emitAudit(ctx, auditEventLogout, true, sess.BookingID, nil, nil)
	}
}

// RecordActivity describes the recordactivity operation and its observable behavior.
//
// RecordActivity may return an error when input validation, dependency calls, or security checks fail.
// RecordActivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RecordActivity() {
	if c == nil || c.isClosed() {
		return
	}
	_, epoch, ok := c.store.Snapshot()
	if !ok {
		return
	}
	c.metricInc(MetricActivityRecorded)
	c.armInactivity(epoch)
}

func (c *Client) armInactivity(epoch uint64) {
	c.inactivity.Schedule(c.config.Session.InactivityTimeout, func() {
		if c.isClosed() || c.store.Epoch() != epoch || !c.store.Active() {
			return
		}
		c.metricInc(MetricInactivityLogout)
		c.emitAudit(context.Background(), auditEventInactivityTimeout, true, "", nil, nil)
		c.Logout(context.Background())
	})
}

func (c *Client) scheduleRefresh(epoch uint64, expiresAt int64) {
	delay := time.Until(time.Unix(expiresAt, 0)) - c.config.Session.RefreshThreshold
	if delay <= 0 {
		// Very short-lived token: attempt refresh immediately rather than
		// silently skipping it. AfterFunc with zero delay keeps the attempt
		// off the caller's goroutine.
		delay = 0
		c.metricInc(MetricRefreshImmediate)
	} else {
		c.metricInc(MetricRefreshScheduled)
	}

	c.refresh.Schedule(delay, func() {
		if c.isClosed() || c.store.Epoch() != epoch || !c.store.Active() {
			return
		}
		_ = c.RefreshSession(context.Background())
	})
}

func (c *Client) ensureFingerprint(ctx context.Context) string {
	if fp, ok := c.fpCache.Get(); ok {
		return fp
	}
	fp := c.fpCache.GetOrGenerate(c.fpGenerator)
	c.metricInc(MetricFingerprintGenerated)
	c.emitAudit(ctx, auditEventFingerprintGenerated, true, "", nil, nil)
	return fp
}

func httpStatusLabel(status int) string {
	return strconv.Itoa(status)
}
