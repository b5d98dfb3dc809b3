package shopauth

import (
	"context"
	"time"

	"github.com/phitku/shopauth/internal"
	"github.com/phitku/shopauth/internal/rate"
	"github.com/phitku/shopauth/jwt"
	"github.com/phitku/shopauth/password"
)

// Engine orchestrates the storefront authentication flows against the
// caller-supplied collaborators. Construct one through [Builder.Build];
// instances are immutable afterwards and safe for concurrent use.
type Engine struct {
	config     Config
	store      CredentialStore
	courier    Courier
	limiter    *rate.Limiter
	audit      *auditDispatcher
	metrics    *Metrics
	hasher     *password.Hasher
	jwtManager *jwt.Manager

	// now and newCode are injection points for tests; production engines run
	// on time.Now and crypto/rand codes.
	now     func() time.Time
	newCode func(digits int) (string, error)
}

// Config returns a copy of the engine's configuration. The HTTP layer reads
// cookie lifetimes and the production flag from it.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// Close flushes and stops the audit dispatcher. Safe on a nil engine.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events the dispatcher shed under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

func (e *Engine) generateCode() (string, error) {
	if e.newCode != nil {
		return e.newCode(e.config.OTP.Digits)
	}
	return internal.NewCode(e.config.OTP.Digits)
}

// Login authenticates a verified identity by email and password and mints a
// fresh token pair. An unknown email and a wrong password are deliberately
// indistinguishable; only an unverified account gets its own error so the UI
// can route back into the code flow.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if e == nil || e.store == nil || e.hasher == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	normalized := NormalizeEmail(email)
	if normalized == "" || plaintext == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", normalized, ErrInvalidCredentials, map[string]string{
			"reason": "empty_input",
		})
		return nil, ErrInvalidCredentials
	}

	identity, err := e.store.FindByEmail(ctx, normalized)
	if err != nil {
		if isUnavailable(err) {
			return nil, err
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", normalized, ErrInvalidCredentials, map[string]string{
			"reason": "identity_not_found",
		})
		return nil, ErrInvalidCredentials
	}

	if !identity.IsVerified {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, normalized, ErrAccountUnverified, nil)
		return nil, ErrAccountUnverified
	}

	if !e.hasher.Compare(plaintext, identity.PasswordHash) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, normalized, ErrInvalidCredentials, map[string]string{
			"reason": "password_mismatch",
		})
		return nil, ErrInvalidCredentials
	}

	result, err := e.issueTokens(identity)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, normalized, err, map[string]string{
			"reason": "token_issuance",
		})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, normalized, nil, nil)
	return result, nil
}

func (e *Engine) issueTokens(identity *Identity) (*LoginResult, error) {
	access, err := e.jwtManager.CreateAccess(identity.ID, identity.IsAdmin)
	if err != nil {
		return nil, err
	}
	refresh, err := e.jwtManager.CreateRefresh(identity.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Profile:      identity.Profile(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
