// Package api is the HTTP client for the wedding-planning REST backend.
//
// It covers the calls the client core depends on: starting and polling
// website scrape jobs, verifying and registering guests, and the guest chat
// endpoints. Every request is JSON, carries an X-Request-ID header and
// honours the caller's context.
//
// # Error Handling
//
// Failures are reported with sentinel errors matched via errors.Is:
// ErrUnavailable (transport failure or 5xx), ErrNotFound (404), ErrRejected
// (any other 4xx) and ErrBadResponse (a 2xx body that cannot be decoded).
// Non-2xx responses are returned as *StatusError, which carries the status
// code and the server's detail text.
package api
