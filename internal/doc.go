// Package internal contains helper utilities that are intentionally private
// to shopauth, including secure one-time-code generation.
//
// # Sub-packages
//
//   - audit — async event model and Sink implementations
//   - rate — Redis-backed fixed-window counters for OTP throttling
//
// # What this package must NOT do
//
//   - Export types that appear in the public shopauth API.
//   - Be imported by any package outside the shopauth module.
package internal
