// provider/quickbooks.go
package provider

import (
	"context"
	"net/url"
	"time"

	"github.com/ledgerlink/authgate/config"
	"github.com/ledgerlink/authgate/internal/token"
)

// QuickBooks implements the Provider interface for Intuit QuickBooks Online.
// Intuit requires HTTP basic auth on the token endpoint and reports the
// company (realm) ID on the redirect rather than in the token response.
type QuickBooks struct {
	endpoint
}

// NewQuickBooks creates the QuickBooks provider client.
func NewQuickBooks(cfg config.ProviderConfig, timeout time.Duration) *QuickBooks {
	return &QuickBooks{endpoint: newEndpoint(cfg, timeout, true)}
}

func (q *QuickBooks) ID() token.ProviderID { return token.ProviderQuickBooks }

func (q *QuickBooks) AuthorizationURL(state string) string {
	return q.authorizationURL(state, nil)
}

func (q *QuickBooks) ExchangeCode(ctx context.Context, grant Grant) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", grant.Code)
	form.Set("redirect_uri", q.cfg.RedirectURI)
	return q.exchange(ctx, grantAuthorizationCode, form)
}

func (q *QuickBooks) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return q.exchange(ctx, grantRefreshToken, form)
}

func (q *QuickBooks) Revoke(ctx context.Context, tok string) error {
	form := url.Values{}
	form.Set("token", tok)
	return q.revoke(ctx, form)
}
