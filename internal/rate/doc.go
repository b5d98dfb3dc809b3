// Package rate provides Redis-backed fixed-window counters throttling
// one-time-code issuance and confirmation.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - oi:  — code issuance per-email
//   - oii: — code issuance per-IP
//   - oc:  — code confirmation per-email
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (the Engine decides when to throttle).
//   - Be imported outside the shopauth module.
package rate
