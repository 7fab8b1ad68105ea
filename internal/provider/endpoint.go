// provider/endpoint.go
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledgerlink/authgate/config"
)

// grantKind distinguishes which exchange a token request performs, which in
// turn decides how a 4xx OAuth error is classified.
type grantKind int

const (
	grantAuthorizationCode grantKind = iota
	grantRefreshToken
)

// endpoint is the shared token-endpoint client behind every provider variant.
// Variants differ only in how they authenticate the request and in the extra
// form fields their provider expects.
type endpoint struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	// basicAuth selects client authentication via the Authorization header
	// rather than client_id/client_secret form fields.
	basicAuth bool
}

func newEndpoint(cfg config.ProviderConfig, timeout time.Duration, basicAuth bool) endpoint {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return endpoint{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		basicAuth:  basicAuth,
	}
}

// exchange POSTs the form to the token URL and decodes the response.
// Network failures and 5xx responses come back as *TransientError; 4xx
// responses with an OAuth error body are classified by kind.
func (e *endpoint) exchange(ctx context.Context, kind grantKind, form url.Values) (*TokenResponse, error) {
	if !e.basicAuth {
		form.Set("client_id", e.cfg.ClientID)
		form.Set("client_secret", e.cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if e.basicAuth {
		req.SetBasicAuth(e.cfg.ClientID, e.cfg.ClientSecret)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &TransientError{Err: fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, body)}
	}

	if resp.StatusCode >= 400 {
		return nil, e.classifyOAuthError(kind, resp)
	}

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &tr, nil
}

// classifyOAuthError maps a 4xx token-endpoint response onto the error
// taxonomy: grant rejections for code exchanges, terminal refresh-token
// failures for refresh exchanges.
func (e *endpoint) classifyOAuthError(kind grantKind, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	oauthErr := &OAuthError{}
	if err := json.Unmarshal(body, oauthErr); err != nil || oauthErr.Code == "" {
		oauthErr = &OAuthError{Code: fmt.Sprintf("http_%d", resp.StatusCode), Description: string(body)}
	}

	switch kind {
	case grantAuthorizationCode:
		return fmt.Errorf("%w: %v", ErrGrantRejected, oauthErr)
	case grantRefreshToken:
		switch oauthErr.Code {
		case "invalid_grant", "invalid_token":
			return fmt.Errorf("%w: %v", ErrRefreshTokenInvalid, oauthErr)
		}
	}
	return oauthErr
}

// revoke POSTs a revocation request when the provider exposes a revoke URL.
func (e *endpoint) revoke(ctx context.Context, form url.Values) error {
	if e.cfg.RevokeURL == "" {
		return nil
	}
	if !e.basicAuth {
		form.Set("client_id", e.cfg.ClientID)
		form.Set("client_secret", e.cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if e.basicAuth {
		req.SetBasicAuth(e.cfg.ClientID, e.cfg.ClientSecret)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("revoke request failed with status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// authorizationURL composes the consent URL with standard parameters plus any
// provider-specific extras.
func (e *endpoint) authorizationURL(state string, extra url.Values) string {
	u, err := url.Parse(e.cfg.AuthURL)
	if err != nil {
		return e.cfg.AuthURL
	}
	q := u.Query()
	q.Set("client_id", e.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(e.cfg.Scopes, " "))
	q.Set("redirect_uri", e.cfg.RedirectURI)
	q.Set("state", state)
	for key, vals := range extra {
		for _, v := range vals {
			q.Set(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
