// Package transport performs authenticated requests against the osu! API v2.
//
// Every call goes through the same policy: the required scopes are checked
// locally before any I/O, 429 and 5xx responses are retried within a budget
// (honouring Retry-After when the server sends one), and a 401 forces exactly
// one credential refresh before the request is repeated. Failures are
// classified into typed errors that all match a sentinel with errors.Is.
package transport
