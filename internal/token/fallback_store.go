// token/fallback_store.go
package token

import (
	"context"
	"log"
	"time"
)

// FallbackStore layers a local MemoryStore under a Redis store so that token
// reads keep working through a Redis outage. Writes always land in the local
// cache and, while Redis is healthy, in Redis too; a background routine
// replays the cache into Redis after it recovers.
type FallbackStore struct {
	primary     *RedisStore
	cache       *MemoryStore
	healthCheck func() bool
}

// NewFallbackStore creates a token store with Redis and local fallback.
// healthCheck reports whether Redis is currently reachable.
func NewFallbackStore(primary *RedisStore, healthCheck func() bool) *FallbackStore {
	return &FallbackStore{
		primary:     primary,
		cache:       NewMemoryStore(),
		healthCheck: healthCheck,
	}
}

// Upsert writes to the local cache and, if Redis is healthy, to Redis.
func (s *FallbackStore) Upsert(ctx context.Context, rec *Record) error {
	if err := s.cache.Upsert(ctx, rec); err != nil {
		return err
	}
	if s.healthCheck() {
		if err := s.primary.Upsert(ctx, rec); err != nil {
			log.Printf("warning: failed to save token record to redis: %v", err)
		}
	}
	return nil
}

// Find reads from Redis when healthy, refreshing the local cache on a hit,
// and otherwise falls back to the cache.
func (s *FallbackStore) Find(ctx context.Context, tenantID string, provider ProviderID) (*Record, error) {
	if s.healthCheck() {
		rec, err := s.primary.Find(ctx, tenantID, provider)
		if err == nil {
			if rec != nil {
				if cacheErr := s.cache.Upsert(ctx, rec); cacheErr != nil {
					log.Printf("warning: failed to cache token record: %v", cacheErr)
				}
			}
			return rec, nil
		}
		log.Printf("warning: failed to read token record from redis: %v", err)
	}
	return s.cache.Find(ctx, tenantID, provider)
}

// Delete removes the record from both stores.
func (s *FallbackStore) Delete(ctx context.Context, tenantID string, provider ProviderID) error {
	if err := s.cache.Delete(ctx, tenantID, provider); err != nil {
		return err
	}
	if s.healthCheck() {
		if err := s.primary.Delete(ctx, tenantID, provider); err != nil {
			log.Printf("warning: failed to delete token record from redis: %v", err)
		}
	}
	return nil
}

// StartReplicationRoutine begins background sync of the local cache to Redis.
// It returns when ctx is cancelled.
func (s *FallbackStore) StartReplicationRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.healthCheck() {
					continue
				}
				s.cache.mu.RLock()
				pending := make([]*Record, 0, len(s.cache.records))
				for _, rec := range s.cache.records {
					pending = append(pending, rec.Clone())
				}
				s.cache.mu.RUnlock()

				for _, rec := range pending {
					if err := s.primary.Upsert(ctx, rec); err != nil {
						log.Printf("replication error for tenant %s provider %s: %v", rec.TenantID, rec.Provider, err)
					}
				}
			}
		}
	}()
}
