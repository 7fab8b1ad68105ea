// infrastructure/container.go
package infrastructure

import (
	"context"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/ledgerlink/authgate/config"
	infraredis "github.com/ledgerlink/authgate/infrastructure/redis"
	"github.com/ledgerlink/authgate/internal/auth"
	"github.com/ledgerlink/authgate/internal/provider"
	"github.com/ledgerlink/authgate/internal/secrets"
	"github.com/ledgerlink/authgate/internal/token"
	"github.com/ledgerlink/authgate/pkg/providerapi"
)

// Container provides application dependencies.
type Container struct {
	// Services
	AuthService *auth.Service

	// Handlers
	AuthHandler    *auth.Handler
	InvoiceHandler *providerapi.InvoiceHandler

	// Infrastructure
	RedisClient goredis.UniversalClient
	RedisHealth *infraredis.HealthChecker
	TokenStore  token.Store
	APIClient   *providerapi.Client
}

// NewContainer creates and initializes the dependency container.
func NewContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	container := &Container{}

	cipher, err := secrets.NewCipher([]byte(cfg.Security.EncryptionKey))
	if err != nil {
		return nil, err
	}

	auth.InitSessionStore([]byte(cfg.Security.SessionSecret))

	// Redis with health checking; the fallback store keeps serving reads
	// through an outage.
	container.RedisClient = infraredis.NewUniversalClient(cfg.Redis)
	container.RedisHealth = infraredis.NewHealthChecker(ctx, container.RedisClient, 30*time.Second)

	redisStore := token.NewRedisStore(container.RedisClient, cfg.Redis.KeyPrefix)
	fallbackStore := token.NewFallbackStore(redisStore, container.RedisHealth.IsHealthy)
	fallbackStore.StartReplicationRoutine(ctx, 5*time.Minute)
	container.TokenStore = fallbackStore

	registry := provider.NewRegistry(
		provider.NewZoho(cfg.Providers.Zoho, cfg.Security.ProviderTimeout),
		provider.NewQuickBooks(cfg.Providers.QuickBooks, cfg.Security.ProviderTimeout),
		provider.NewXero(cfg.Providers.Xero, cfg.Security.ProviderTimeout),
	)

	container.AuthService = auth.NewService(container.TokenStore, cipher, registry, cfg.Security.RefreshMargin)
	container.AuthHandler = auth.NewHandler(container.AuthService)

	container.APIClient = providerapi.NewClient(map[token.ProviderID]string{
		token.ProviderZoho:       cfg.Providers.Zoho.APIBaseURL,
		token.ProviderQuickBooks: cfg.Providers.QuickBooks.APIBaseURL,
		token.ProviderXero:       cfg.Providers.Xero.APIBaseURL,
	}, container.AuthService)
	container.InvoiceHandler = providerapi.NewInvoiceHandler(container.APIClient)

	return container, nil
}

// Shutdown gracefully closes connections.
func (c *Container) Shutdown() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}
}
