package shopauth

import "errors"

var (
	// ErrIdentityNotFound is returned when no identity record exists for the
	// given email or id.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrAlreadyRegistered is returned by registration initiation when the
	// email already belongs to a verified identity.
	ErrAlreadyRegistered = errors.New("email already registered")
	// ErrCodeInvalidOrExpired is returned when a submitted verification code
	// does not match the pending code, no code is pending, or the code has
	// passed its expiry instant.
	ErrCodeInvalidOrExpired = errors.New("verification code invalid or expired")
	// ErrWeakPassword is returned when a password fails the minimum-strength
	// policy (8+ characters, at least one letter and one digit).
	ErrWeakPassword = errors.New("password does not meet strength policy")
	// ErrInvalidCredentials is returned on login failure. It deliberately does
	// not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountUnverified is returned when a pending-verification identity
	// attempts to log in.
	ErrAccountUnverified = errors.New("account not verified")
	// ErrUnauthenticated is returned by the authentication gate for a
	// missing, malformed, expired, or otherwise unverifiable bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when an authenticated identity lacks the admin
	// flag required by the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidAddress is returned when an address snapshot is missing its
	// required fields.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrOTPRateLimited is returned when code issuance or confirmation
	// attempts exceed the configured budget.
	ErrOTPRateLimited = errors.New("verification attempts rate limited")
	// ErrStoreUnavailable is returned when the credential store or limiter
	// backend cannot be reached.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrEngineNotReady is returned when a required collaborator was not
	// supplied at build time.
	ErrEngineNotReady = errors.New("engine not initialized")
)
