// provider/zoho.go
package provider

import (
	"context"
	"net/url"
	"time"

	"github.com/ledgerlink/authgate/config"
	"github.com/ledgerlink/authgate/internal/token"
)

// Zoho implements the Provider interface for Zoho Books/Invoice. Zoho
// authenticates token requests with client credentials in the form body.
type Zoho struct {
	endpoint
}

// NewZoho creates the Zoho provider client.
func NewZoho(cfg config.ProviderConfig, timeout time.Duration) *Zoho {
	return &Zoho{endpoint: newEndpoint(cfg, timeout, false)}
}

func (z *Zoho) ID() token.ProviderID { return token.ProviderZoho }

// AuthorizationURL requests offline access so the exchange yields a refresh
// token; Zoho only issues one when prompted for consent.
func (z *Zoho) AuthorizationURL(state string) string {
	return z.authorizationURL(state, url.Values{
		"access_type": {"offline"},
		"prompt":      {"consent"},
	})
}

func (z *Zoho) ExchangeCode(ctx context.Context, grant Grant) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", grant.Code)
	form.Set("redirect_uri", z.cfg.RedirectURI)
	return z.exchange(ctx, grantAuthorizationCode, form)
}

func (z *Zoho) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return z.exchange(ctx, grantRefreshToken, form)
}

func (z *Zoho) Revoke(ctx context.Context, tok string) error {
	form := url.Values{}
	form.Set("token", tok)
	return z.revoke(ctx, form)
}
