// Package redistore implements the credential store on Redis: one JSON
// document per identity plus a lower-cased email index enforcing
// case-insensitive uniqueness.
//
// # Concurrency
//
// Upsert and ConsumePendingCode run inside WATCH transactions on the keys
// they rewrite. Racing upserts for the same email are last-writer-wins on
// code and expiry (the intended re-issue semantics); racing code
// consumptions resolve to exactly one winner.
package redistore
