// config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full application configuration, loaded once at startup.
type Config struct {
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Security  SecurityConfig  `envPrefix:""`
	Providers ProvidersConfig `envPrefix:""`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addresses []string `env:"ADDRESSES" envDefault:"localhost:6379" envSeparator:","`
	Password  string   `env:"PASSWORD"`
	DB        int      `env:"DB" envDefault:"0"`
	KeyPrefix string   `env:"KEY_PREFIX" envDefault:"authgate"`
	EnableTLS bool     `env:"ENABLE_TLS" envDefault:"false"`
}

// SecurityConfig holds the token encryption key, session secret and the
// refresh safety margin applied before a stored access token's expiry.
type SecurityConfig struct {
	EncryptionKey   string        `env:"ENCRYPTION_KEY,required"`
	SessionSecret   string        `env:"SESSION_SECRET,required"`
	RefreshMargin   time.Duration `env:"TOKEN_REFRESH_MARGIN" envDefault:"60s"`
	ProviderTimeout time.Duration `env:"PROVIDER_HTTP_TIMEOUT" envDefault:"10s"`
}

// ProviderConfig holds the static OAuth parameters for one provider.
type ProviderConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURI  string   `env:"REDIRECT_URI"`
	Scopes       []string `env:"SCOPES" envSeparator:","`
	AuthURL      string   `env:"AUTH_URL"`
	TokenURL     string   `env:"TOKEN_URL"`
	RevokeURL    string   `env:"REVOKE_URL"`
	APIBaseURL   string   `env:"API_BASE_URL"`
}

// ProvidersConfig groups per-provider OAuth settings.
type ProvidersConfig struct {
	Zoho       ProviderConfig `envPrefix:"ZOHO_"`
	QuickBooks ProviderConfig `envPrefix:"QUICKBOOKS_"`
	Xero       ProviderConfig `envPrefix:"XERO_"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	applyProviderDefaults(&cfg.Providers)
	return cfg, nil
}

// applyProviderDefaults fills in the well-known OAuth endpoints so that a
// deployment only has to configure credentials.
func applyProviderDefaults(p *ProvidersConfig) {
	if p.Zoho.AuthURL == "" {
		p.Zoho.AuthURL = "https://accounts.zoho.com/oauth/v2/auth"
	}
	if p.Zoho.TokenURL == "" {
		p.Zoho.TokenURL = "https://accounts.zoho.com/oauth/v2/token"
	}
	if p.Zoho.RevokeURL == "" {
		p.Zoho.RevokeURL = "https://accounts.zoho.com/oauth/v2/token/revoke"
	}
	if p.QuickBooks.AuthURL == "" {
		p.QuickBooks.AuthURL = "https://appcenter.intuit.com/connect/oauth2"
	}
	if p.QuickBooks.TokenURL == "" {
		p.QuickBooks.TokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	}
	if p.QuickBooks.RevokeURL == "" {
		p.QuickBooks.RevokeURL = "https://developer.api.intuit.com/v2/oauth2/tokens/revoke"
	}
	if p.Xero.AuthURL == "" {
		p.Xero.AuthURL = "https://login.xero.com/identity/connect/authorize"
	}
	if p.Xero.TokenURL == "" {
		p.Xero.TokenURL = "https://identity.xero.com/connect/token"
	}
	if p.Xero.RevokeURL == "" {
		p.Xero.RevokeURL = "https://identity.xero.com/connect/revocation"
	}
}
