// Package auth manages the OAuth2 credential of one osu! API session.
//
// An Authenticator is configured for exactly one grant: client credentials
// (app-only, re-exchanged on expiry) or authorization code (user session,
// renewed with its refresh token). Sessions that need both grants use two
// Authenticators with two stores; they never share state.
//
// The credential moves through the states Unauthenticated, Authenticating,
// Valid, Refreshing and Revoked. EnsureValid serves a cached credential with
// no I/O while it is outside the expiry skew; otherwise concurrent callers
// collapse onto a single grant request. A provider "invalid_grant" answer
// revokes the session and surfaces as AuthExpiredError.
package auth
