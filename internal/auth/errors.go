// auth/errors.go
package auth

import "errors"

// Business outcomes surfaced to the route layer. Storage and credential
// failures pass through from their own packages and are the only conditions
// treated as internal errors at the boundary.
var (
	// ErrNotConnected: the tenant never completed the authorization flow for
	// this provider, or has disconnected.
	ErrNotConnected = errors.New("tenant is not connected to this provider")

	// ErrReauthorizationRequired: the refresh token is dead and the stored
	// connection has been removed; the tenant must redo the consent flow.
	ErrReauthorizationRequired = errors.New("reauthorization required")

	// ErrTemporarilyUnavailable: the provider could not be reached or failed
	// server-side; the stored connection is intact and the caller may retry.
	ErrTemporarilyUnavailable = errors.New("provider temporarily unavailable")
)
