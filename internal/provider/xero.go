// provider/xero.go
package provider

import (
	"context"
	"net/url"
	"time"

	"github.com/ledgerlink/authgate/config"
	"github.com/ledgerlink/authgate/internal/token"
)

// Xero implements the Provider interface for Xero. Xero uses basic auth on
// the token endpoint and rotates the refresh token on every refresh.
type Xero struct {
	endpoint
}

// NewXero creates the Xero provider client.
func NewXero(cfg config.ProviderConfig, timeout time.Duration) *Xero {
	return &Xero{endpoint: newEndpoint(cfg, timeout, true)}
}

func (x *Xero) ID() token.ProviderID { return token.ProviderXero }

func (x *Xero) AuthorizationURL(state string) string {
	return x.authorizationURL(state, nil)
}

func (x *Xero) ExchangeCode(ctx context.Context, grant Grant) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", grant.Code)
	form.Set("redirect_uri", x.cfg.RedirectURI)
	return x.exchange(ctx, grantAuthorizationCode, form)
}

func (x *Xero) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return x.exchange(ctx, grantRefreshToken, form)
}

func (x *Xero) Revoke(ctx context.Context, tok string) error {
	form := url.Values{}
	form.Set("token", tok)
	return x.revoke(ctx, form)
}
