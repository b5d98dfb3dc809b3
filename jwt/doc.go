// Package jwt manages access- and refresh-token issuance and verification
// with an HS256 symmetric secret and strict validation semantics.
package jwt
