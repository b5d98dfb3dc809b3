// Package middleware provides net/http middleware that gates requests on
// the engine's bearer-token authentication and admin checks.
package middleware
