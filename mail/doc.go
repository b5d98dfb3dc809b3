// Package mail implements the outbound-email collaborator: a thin client for
// a Brevo-style transactional HTTP API plus the storefront's message
// templates.
//
// The client satisfies the root package's Courier interface. Delivery failure
// handling (log, never abort the triggering request) belongs to the Engine,
// not this package.
package mail
