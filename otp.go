package shopauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"strings"

	"github.com/phitku/shopauth/internal/rate"
	"github.com/phitku/shopauth/mail"
)

// Shared one-time-code mechanics used by both the registration and the
// password-reset flow. Issuance always overwrites any earlier pending code
// (last writer wins), so only the most recently issued code can verify.

func (e *Engine) throttleIssue(ctx context.Context, email string) error {
	if e.limiter == nil {
		return nil
	}
	if err := e.limiter.CheckIssue(ctx, email, clientIPFromContext(ctx)); err != nil {
		return mapLimiterError(err)
	}
	return nil
}

func (e *Engine) throttleConfirm(ctx context.Context, email string) error {
	if e.limiter == nil {
		return nil
	}
	if err := e.limiter.CheckConfirm(ctx, email); err != nil {
		return mapLimiterError(err)
	}
	return nil
}

func (e *Engine) resetConfirmBudget(ctx context.Context, email string) {
	if e.limiter == nil {
		return
	}
	// Best effort; a stale counter only tightens the next window.
	if err := e.limiter.ResetConfirm(ctx, email); err != nil {
		log.Print("shopauth: confirm counter reset failed")
	}
}

// issuePendingCode stamps a fresh code and expiry onto the record and
// persists it. The returned code is the only copy handed to delivery.
func (e *Engine) issuePendingCode(ctx context.Context, identity *Identity) (string, error) {
	code, err := e.generateCode()
	if err != nil {
		return "", err
	}

	identity.PendingCode = code
	identity.PendingCodeExpiresAt = e.clock().Add(e.config.OTP.CodeTTL)

	if _, err := e.store.Upsert(ctx, identity); err != nil {
		return "", err
	}

	return code, nil
}

// checkPendingCode is the non-consuming verification: trim-exact string
// match against the stored code, then the expiry gate. The code stays valid
// for further checks until consumed or superseded.
func (e *Engine) checkPendingCode(identity *Identity, submitted string) error {
	stored := strings.TrimSpace(identity.PendingCode)
	if stored == "" {
		return ErrCodeInvalidOrExpired
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(submitted))) != 1 {
		return ErrCodeInvalidOrExpired
	}
	if !e.clock().Before(identity.PendingCodeExpiresAt) {
		return ErrCodeInvalidOrExpired
	}
	return nil
}

// deliverCode hands the code to the courier. Delivery is fire-and-forget:
// failure is logged and audited so the registrant can simply request a
// resend, and the triggering request still succeeds.
func (e *Engine) deliverCode(ctx context.Context, toEmail, displayName, code string, reset bool) {
	if e.courier == nil {
		return
	}

	var subject, html string
	if reset {
		subject, html = mail.ResetEmail(displayName, code)
	} else {
		subject, html = mail.VerificationEmail(displayName, code)
	}

	if err := e.courier.Send(ctx, toEmail, subject, html); err != nil {
		log.Printf("shopauth: code delivery to %s failed: %v", toEmail, err)
		e.metricInc(MetricDeliveryFailure)
		e.emitAudit(ctx, auditEventDeliveryFailure, false, "", toEmail, nil, map[string]string{
			"reset": boolString(reset),
		})
	}
}

func mapLimiterError(err error) error {
	switch {
	case errors.Is(err, rate.ErrRateLimited):
		return ErrOTPRateLimited
	case errors.Is(err, rate.ErrRedisUnavailable):
		return ErrStoreUnavailable
	default:
		return ErrStoreUnavailable
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
