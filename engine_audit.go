package shopauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRegistrationCodeRequest = "registration_code_request"
	auditEventRegistrationCodeVerify  = "registration_code_verify"
	auditEventRegistrationComplete    = "registration_complete"
	auditEventLoginSuccess            = "login_success"
	auditEventLoginFailure            = "login_failure"
	auditEventPasswordResetRequest    = "password_reset_request"
	auditEventPasswordResetVerify     = "password_reset_verify"
	auditEventPasswordResetConfirm    = "password_reset_confirm"
	auditEventAuthenticateFailure     = "authenticate_failure"
	auditEventAddressAdded            = "address_added"
	auditEventRateLimitTriggered      = "rate_limit_triggered"
	auditEventDeliveryFailure         = "delivery_failure"
)

type auditErrorCodeValue string

const (
	auditErrIdentityNotFound   auditErrorCodeValue = "identity_not_found"
	auditErrAlreadyRegistered  auditErrorCodeValue = "already_registered"
	auditErrCodeInvalid        auditErrorCodeValue = "code_invalid_or_expired"
	auditErrWeakPassword       auditErrorCodeValue = "weak_password"
	auditErrInvalidCredentials auditErrorCodeValue = "invalid_credentials"
	auditErrUnverified         auditErrorCodeValue = "account_unverified"
	auditErrUnauthenticated    auditErrorCodeValue = "unauthenticated"
	auditErrForbidden          auditErrorCodeValue = "forbidden"
	auditErrRateLimited        auditErrorCodeValue = "rate_limited"
	auditErrUnavailable        auditErrorCodeValue = "backend_unavailable"
	auditErrInternal           auditErrorCodeValue = "internal_error"
)

func auditErrorCode(err error) auditErrorCodeValue {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIdentityNotFound):
		return auditErrIdentityNotFound
	case errors.Is(err, ErrAlreadyRegistered):
		return auditErrAlreadyRegistered
	case errors.Is(err, ErrCodeInvalidOrExpired):
		return auditErrCodeInvalid
	case errors.Is(err, ErrWeakPassword):
		return auditErrWeakPassword
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountUnverified):
		return auditErrUnverified
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrOTPRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identityID string,
	email string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		IdentityID: identityID,
		Email:      email,
		IP:         clientIPFromContext(ctx),
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, email string) {
	e.metricInc(MetricCodeRateLimited)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", email, ErrOTPRateLimited, map[string]string{
		"scope": scope,
	})
}

func isUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
