package shopauth

import (
	"context"
	"strings"
)

const bearerPrefix = "Bearer "

// Authenticate resolves an Authorization header value to a live identity.
// Every call re-verifies signature and expiry and re-reads the record from
// the store — there is no session cache, so deleting a record is the only
// way to invalidate an unexpired access token. The returned identity never
// carries the password hash or a pending code.
func (e *Engine) Authenticate(ctx context.Context, bearerHeader string) (*Identity, error) {
	if e == nil || e.store == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	token, ok := bearerToken(bearerHeader)
	if !ok {
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrUnauthenticated
	}

	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, "", "", ErrUnauthenticated, map[string]string{
			"reason": "token_invalid",
		})
		return nil, ErrUnauthenticated
	}

	identity, err := e.store.FindByID(ctx, claims.ID)
	if err != nil {
		if isUnavailable(err) {
			return nil, err
		}
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, claims.ID, "", ErrUnauthenticated, map[string]string{
			"reason": "identity_gone",
		})
		return nil, ErrUnauthenticated
	}

	sanitized := identity.Clone()
	sanitized.PasswordHash = ""
	sanitized.PendingCode = ""

	e.metricInc(MetricAuthenticateSuccess)
	return sanitized, nil
}

// RequireAdmin gates an already-authenticated identity on the admin flag.
// It is never a substitute for [Engine.Authenticate].
func (e *Engine) RequireAdmin(identity *Identity) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if !identity.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// RefreshIdentity resolves a refresh-token string (from the cookie) back to
// its identity. Exposed for the HTTP layer; minting new access tokens from
// it is deliberately not implemented.
func (e *Engine) RefreshIdentity(ctx context.Context, refreshToken string) (*Identity, error) {
	if e == nil || e.store == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	identity, err := e.store.FindByID(ctx, claims.ID)
	if err != nil {
		if isUnavailable(err) {
			return nil, err
		}
		return nil, ErrUnauthenticated
	}

	sanitized := identity.Clone()
	sanitized.PasswordHash = ""
	sanitized.PendingCode = ""
	return sanitized, nil
}

func bearerToken(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearerPrefix):])
	if token == "" {
		return "", false
	}

	return token, true
}
