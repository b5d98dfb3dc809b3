package middleware

import (
	"context"
	"errors"
	"net/http"

	shopauth "github.com/phitku/shopauth"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// Authenticator is the slice of the engine the guard needs.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerHeader string) (*shopauth.Identity, error)
	RequireAdmin(identity *shopauth.Identity) error
}

// IdentityFromContext returns the identity a guard stored for this request,
// or nil when the request never passed through one.
func IdentityFromContext(ctx context.Context) *shopauth.Identity {
	identity, _ := ctx.Value(identityKey).(*shopauth.Identity)
	return identity
}

// WithIdentity returns a context carrying the identity. Exposed so handler
// tests can seed a request without running the full guard.
func WithIdentity(ctx context.Context, identity *shopauth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Guard authenticates the Authorization header on every request and injects
// the resolved identity into the request context. Requests without a valid
// bearer token are rejected with 401 before the wrapped handler runs.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeGuardError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin rejects requests whose guarded identity lacks the admin flag.
// It must run inside [Guard]; without a stored identity every request is 401.
func RequireAdmin(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if err := auth.RequireAdmin(identity); err != nil {
				writeGuardError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shopauth.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, shopauth.ErrStoreUnavailable):
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
}
