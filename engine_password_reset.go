package shopauth

import (
	"context"
	"errors"

	"github.com/phitku/shopauth/password"
)

// RequestPasswordReset issues a reset code for a verified identity. The call
// is enumeration-safe: an unknown email, or one still pending verification,
// returns success without sending anything, so the response never reveals
// whether an account exists. The verified flag is never touched by reset.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil
	}

	if err := e.throttleIssue(ctx, normalized); err != nil {
		if errors.Is(err, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "reset_request", normalized)
		}
		return err
	}

	identity, err := e.store.FindByEmail(ctx, normalized)
	switch {
	case errors.Is(err, ErrIdentityNotFound):
		e.emitAudit(ctx, auditEventPasswordResetRequest, true, "", normalized, nil, map[string]string{
			"enumeration_safe": "true",
		})
		return nil
	case err != nil:
		return err
	case !identity.IsVerified:
		// Nothing to reset; silently succeed for the same reason.
		e.emitAudit(ctx, auditEventPasswordResetRequest, true, identity.ID, normalized, nil, map[string]string{
			"noop": "unverified",
		})
		return nil
	}

	code, err := e.issuePendingCode(ctx, identity)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, identity.ID, normalized, err, nil)
		return err
	}

	e.deliverCode(ctx, normalized, identity.Name, code, true)

	e.metricInc(MetricCodeIssued)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, identity.ID, normalized, nil, nil)
	return nil
}

// VerifyResetCode is the non-consuming reset-code check, the reset-side twin
// of [Engine.VerifyRegistrationCode].
func (e *Engine) VerifyResetCode(ctx context.Context, email, code string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	normalized := NormalizeEmail(email)

	if err := e.throttleConfirm(ctx, normalized); err != nil {
		if errors.Is(err, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "reset_verify", normalized)
		}
		return err
	}

	identity, err := e.store.FindByEmail(ctx, normalized)
	if err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventPasswordResetVerify, false, "", normalized, err, nil)
		return err
	}

	if err := e.checkPendingCode(identity, code); err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventPasswordResetVerify, false, identity.ID, normalized, err, nil)
		return err
	}

	e.metricInc(MetricCodeVerifySuccess)
	e.emitAudit(ctx, auditEventPasswordResetVerify, true, identity.ID, normalized, nil, nil)
	return nil
}

// ConfirmPasswordReset replaces the password after a final code check. The
// consume is the same conditional update registration uses, except the
// verified flag is left exactly as it was.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, email, code, plaintext string) error {
	if e == nil || e.store == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	normalized := NormalizeEmail(email)

	if err := password.CheckPolicy(plaintext); err != nil {
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", normalized, ErrWeakPassword, nil)
		return ErrWeakPassword
	}

	if err := e.throttleConfirm(ctx, normalized); err != nil {
		if errors.Is(err, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "reset_confirm", normalized)
		}
		return err
	}

	identity, err := e.store.FindByEmail(ctx, normalized)
	if err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", normalized, err, nil)
		return err
	}
	if err := e.checkPendingCode(identity, code); err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, identity.ID, normalized, err, nil)
		return err
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, identity.ID, normalized, err, nil)
		return err
	}

	updated, err := e.store.ConsumePendingCode(ctx, normalized, code, hash, false)
	if err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, identity.ID, normalized, err, nil)
		return err
	}

	e.resetConfirmBudget(ctx, normalized)

	e.metricInc(MetricCodeConsumed)
	e.metricInc(MetricPasswordResetCompleted)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, updated.ID, normalized, nil, nil)
	return nil
}
