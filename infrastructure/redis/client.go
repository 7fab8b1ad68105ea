// infrastructure/redis/client.go
package redis

import (
	"crypto/tls"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ledgerlink/authgate/config"
)

// pooling defaults shared by single-node and cluster clients.
const (
	maxRetries      = 3
	minRetryBackoff = 8 * time.Millisecond
	maxRetryBackoff = 512 * time.Millisecond
	dialTimeout     = 5 * time.Second
	readTimeout     = 3 * time.Second
	writeTimeout    = 3 * time.Second
	poolSize        = 10
	minIdleConns    = 2
	poolTimeout     = 4 * time.Second
	idleTimeout     = 5 * time.Minute
)

// NewUniversalClient creates a Redis client from configuration, using a
// cluster client when more than one address is configured.
func NewUniversalClient(cfg config.RedisConfig) redis.UniversalClient {
	var tlsConfig *tls.Config
	if cfg.EnableTLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if len(cfg.Addresses) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           cfg.Addresses,
			Password:        cfg.Password,
			MaxRetries:      maxRetries,
			MinRetryBackoff: minRetryBackoff,
			MaxRetryBackoff: maxRetryBackoff,
			DialTimeout:     dialTimeout,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			PoolSize:        poolSize,
			MinIdleConns:    minIdleConns,
			PoolTimeout:     poolTimeout,
			IdleTimeout:     idleTimeout,
			TLSConfig:       tlsConfig,
		})
	}

	addr := "localhost:6379"
	if len(cfg.Addresses) == 1 {
		addr = cfg.Addresses[0]
	}
	return redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      maxRetries,
		MinRetryBackoff: minRetryBackoff,
		MaxRetryBackoff: maxRetryBackoff,
		DialTimeout:     dialTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		PoolSize:        poolSize,
		MinIdleConns:    minIdleConns,
		PoolTimeout:     poolTimeout,
		IdleTimeout:     idleTimeout,
		TLSConfig:       tlsConfig,
	})
}
