// provider/provider.go
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerlink/authgate/internal/token"
)

// Grant is the transient authorization-code context handed from the OAuth
// redirect callback into the exchange call. It is never persisted.
type Grant struct {
	Code             string
	State            string
	OrgID            string // provider organization, e.g. QuickBooks realmId
	ExternalTenantID string // provider-side tenant identifier, where exposed
}

// TokenResponse is the decoded body of a successful token-endpoint exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// Scopes splits the space-delimited OAuth scope string.
func (r *TokenResponse) Scopes() []string {
	return strings.Fields(r.Scope)
}

// Provider performs the OAuth2 token exchanges for one accounting system.
// Adding a system means adding one implementation; nothing above this
// interface knows provider specifics.
type Provider interface {
	ID() token.ProviderID

	// AuthorizationURL builds the user-consent URL carrying the given state.
	AuthorizationURL(state string) string

	// ExchangeCode swaps a single-use authorization code for tokens. A 4xx
	// OAuth error surfaces as ErrGrantRejected; the grant must not be retried.
	ExchangeCode(ctx context.Context, grant Grant) (*TokenResponse, error)

	// Refresh swaps a refresh token for a new access token. A provider report
	// that the refresh token is expired or revoked surfaces as
	// ErrRefreshTokenInvalid, a terminal condition for that connection.
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)

	// Revoke invalidates a token at the provider. Best effort; providers
	// without a revocation endpoint return nil.
	Revoke(ctx context.Context, tok string) error
}

// Error taxonomy. Network-level failures are retryable; OAuth-protocol
// rejections are not.
var (
	ErrGrantRejected       = errors.New("provider rejected authorization grant")
	ErrRefreshTokenInvalid = errors.New("refresh token expired or revoked")
)

// OAuthError is the structured error body a token endpoint returns on a 4xx.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("oauth error %q", e.Code)
	}
	return fmt.Sprintf("oauth error %q: %s", e.Code, e.Description)
}

// TransientError marks a network-level or provider-side (5xx) failure. The
// stored connection is intact and the caller may retry later.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("provider temporarily unavailable: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
