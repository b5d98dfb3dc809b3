// Package shopauth implements the authentication core of a small storefront
// backend: OTP-based registration and password reset, bcrypt credential
// storage, JWT access/refresh token issuance, and a per-request
// authentication gate.
//
// The package is built for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. The engine owns no persistence of its own — callers supply
// a [CredentialStore] (a Redis-backed implementation ships in package
// redistore), a [Courier] for outbound mail, and optionally a Redis client
// for attempt throttling.
//
// A registration moves an identity record through exactly one lifecycle:
//
//	unregistered -> pending verification (code issued) -> verified
//
// Password reset reuses the same pending-code mechanics against an already
// verified record without ever clearing its verified flag.
package shopauth
