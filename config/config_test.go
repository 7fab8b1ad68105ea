// config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "test-encryption-key")
	t.Setenv("SESSION_SECRET", "test-session-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ADDRESSES", "redis-a:6379,redis-b:6379")
	t.Setenv("TOKEN_REFRESH_MARGIN", "90s")
	t.Setenv("ZOHO_CLIENT_ID", "zoho-client")
	t.Setenv("ZOHO_SCOPES", "ZohoInvoice.invoices.READ,ZohoInvoice.contacts.READ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, cfg.Redis.Addresses)
	assert.Equal(t, 90*time.Second, cfg.Security.RefreshMargin)
	assert.Equal(t, "zoho-client", cfg.Providers.Zoho.ClientID)
	assert.Len(t, cfg.Providers.Zoho.Scopes, 2)

	// Well-known endpoints fill in when not overridden.
	assert.Equal(t, "https://accounts.zoho.com/oauth/v2/token", cfg.Providers.Zoho.TokenURL)
	assert.NotEmpty(t, cfg.Providers.QuickBooks.TokenURL)
	assert.NotEmpty(t, cfg.Providers.Xero.AuthURL)
}

func TestLoadRequiresEncryptionKey(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-session-secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEndpointOverride(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "test-encryption-key")
	t.Setenv("SESSION_SECRET", "test-session-secret")
	t.Setenv("ZOHO_TOKEN_URL", "https://accounts.zoho.eu/oauth/v2/token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.zoho.eu/oauth/v2/token", cfg.Providers.Zoho.TokenURL)
}
