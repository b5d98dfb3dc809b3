// Package password implements password hashing and verification with bcrypt,
// plus the storefront's minimum-strength policy.
//
// # Output format
//
// Hashes are standard bcrypt strings ($2a$...), salted per hash with a
// tunable cost factor.
//
// # Architecture boundaries
//
// This package owns hashing, verification, and the strength policy check.
// Deciding when a password may be set (code gating, verified state) is the
// Engine's concern.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other shopauth package.
//   - Log plaintext passwords at runtime.
package password
