package shopauth

import (
	"context"
	"errors"
	"strings"

	"github.com/phitku/shopauth/password"
)

// BeginRegistration starts (or restarts) a registration: it creates or
// overwrites the pending record for the email, stamps a fresh code, and
// triggers delivery. A verified identity for the email fails with
// [ErrAlreadyRegistered]. Repeating the call re-issues and invalidates any
// earlier code.
func (e *Engine) BeginRegistration(ctx context.Context, email, displayName string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	normalized := NormalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	if normalized == "" || displayName == "" {
		return ErrInvalidCredentials
	}

	if err := e.throttleIssue(ctx, normalized); err != nil {
		if errors.Is(err, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "registration_request", normalized)
		}
		return err
	}

	identity, err := e.store.FindByEmail(ctx, normalized)
	switch {
	case err == nil:
		if identity.IsVerified {
			e.emitAudit(ctx, auditEventRegistrationCodeRequest, false, identity.ID, normalized, ErrAlreadyRegistered, nil)
			return ErrAlreadyRegistered
		}
		// Pending record: the retry overwrites name, code, and expiry
		// rather than creating a duplicate.
		identity.Name = displayName
	case errors.Is(err, ErrIdentityNotFound):
		identity = &Identity{
			Name:  displayName,
			Email: normalized,
		}
	default:
		return err
	}

	code, err := e.issuePendingCode(ctx, identity)
	if err != nil {
		e.emitAudit(ctx, auditEventRegistrationCodeRequest, false, identity.ID, normalized, err, nil)
		return err
	}

	e.deliverCode(ctx, normalized, displayName, code, false)

	e.metricInc(MetricCodeIssued)
	e.emitAudit(ctx, auditEventRegistrationCodeRequest, true, identity.ID, normalized, nil, nil)
	return nil
}

// VerifyRegistrationCode is the non-consuming check the UI calls to gate
// progression to the password step. It can be repeated; the code stays
// pending until [Engine.CompleteRegistration] consumes it or a re-issue
// supersedes it. Attempts count against the confirm budget.
func (e *Engine) VerifyRegistrationCode(ctx context.Context, email, code string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	normalized := NormalizeEmail(email)

	if err := e.throttleConfirm(ctx, normalized); err != nil {
		if errors.Is(err, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "registration_verify", normalized)
		}
		return err
	}

	identity, err := e.store.FindByEmail(ctx, normalized)
	if err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventRegistrationCodeVerify, false, "", normalized, err, nil)
		return err
	}

	if err := e.checkPendingCode(identity, code); err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventRegistrationCodeVerify, false, identity.ID, normalized, err, nil)
		return err
	}

	e.metricInc(MetricCodeVerifySuccess)
	e.emitAudit(ctx, auditEventRegistrationCodeVerify, true, identity.ID, normalized, nil, nil)
	return nil
}

// CompleteRegistration finalizes a registration: it re-checks the code,
// enforces the password policy, and atomically sets the password hash,
// marks the record verified, and clears the pending code. On success a
// fresh token pair is minted for the new identity.
//
// The code check runs twice on purpose — once here for fast feedback, once
// inside the store's conditional consume so two racing submissions cannot
// both set a password.
func (e *Engine) CompleteRegistration(ctx context.Context, email, code, plaintext string) (*LoginResult, error) {
	if e == nil || e.store == nil || e.hasher == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	normalized := NormalizeEmail(email)

	if err := password.CheckPolicy(plaintext); err != nil {
		e.emitAudit(ctx, auditEventRegistrationComplete, false, "", normalized, ErrWeakPassword, nil)
		return nil, ErrWeakPassword
	}

	if err := e.throttleConfirm(ctx, normalized); err != nil {
		if errors.Is(err, ErrOTPRateLimited) {
			e.emitRateLimit(ctx, "registration_complete", normalized)
		}
		return nil, err
	}

	identity, err := e.store.FindByEmail(ctx, normalized)
	if err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventRegistrationComplete, false, "", normalized, err, nil)
		return nil, err
	}
	if err := e.checkPendingCode(identity, code); err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventRegistrationComplete, false, identity.ID, normalized, err, nil)
		return nil, err
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		e.emitAudit(ctx, auditEventRegistrationComplete, false, identity.ID, normalized, err, nil)
		return nil, err
	}

	updated, err := e.store.ConsumePendingCode(ctx, normalized, code, hash, true)
	if err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventRegistrationComplete, false, identity.ID, normalized, err, nil)
		return nil, err
	}

	e.resetConfirmBudget(ctx, normalized)

	result, err := e.issueTokens(updated)
	if err != nil {
		e.emitAudit(ctx, auditEventRegistrationComplete, false, updated.ID, normalized, err, map[string]string{
			"reason": "token_issuance",
		})
		return nil, err
	}

	e.metricInc(MetricCodeConsumed)
	e.metricInc(MetricRegistrationCompleted)
	e.emitAudit(ctx, auditEventRegistrationComplete, true, updated.ID, normalized, nil, nil)
	return result, nil
}
