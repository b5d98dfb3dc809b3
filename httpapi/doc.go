// Package httpapi exposes the engine's flows as a JSON HTTP API.
//
// Every response body carries a "message" field. Successful login and
// registration additionally carry the access token and the reduced user
// projection; the refresh token travels only in the refreshToken cookie,
// never in a body.
package httpapi
