// providerapi/client.go
package providerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledgerlink/authgate/internal/auth"
	"github.com/ledgerlink/authgate/internal/token"
)

// Client makes authenticated calls to a connected provider's API on behalf of
// a tenant. Every request pulls a valid access token from the lifecycle
// manager, so refresh happens transparently and only when needed.
type Client struct {
	baseURLs    map[token.ProviderID]string
	authService *auth.Service
	httpClient  *http.Client
}

// NewClient creates a provider API client.
func NewClient(baseURLs map[token.ProviderID]string, authService *auth.Service) *Client {
	return &Client{
		baseURLs:    baseURLs,
		authService: authService,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Do performs an authenticated request against the provider API. path is
// joined onto the provider's configured base URL.
func (c *Client) Do(ctx context.Context, tenantID string, providerID token.ProviderID, method, path string, body io.Reader) (*http.Response, error) {
	baseURL, ok := c.baseURLs[providerID]
	if !ok || baseURL == "" {
		return nil, fmt.Errorf("no API base URL configured for provider %s", providerID)
	}

	accessToken, err := c.authService.ValidAccessToken(ctx, tenantID, providerID)
	if err != nil {
		return nil, fmt.Errorf("get valid token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(resp.Body)

		var apiErr struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%s API error (%s): %s", providerID, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("%s API returned status %d: %s", providerID, resp.StatusCode, payload)
	}

	return resp, nil
}
