// token/redis_store.go
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// upsertAttempts bounds optimistic-lock retries when concurrent writers race
// on the same key.
const upsertAttempts = 3

// RedisStore implements Store on Redis, one key per (tenant, provider) pair.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// key generates the Redis key for a tenant's provider connection.
func (s *RedisStore) key(tenantID string, provider ProviderID) string {
	return fmt.Sprintf("%s:token:%s:%s", s.prefix, tenantID, provider)
}

// Upsert writes the record under WATCH so that read-modify-write cycles for
// the same pair are serialized: a concurrent replacement aborts the
// transaction and the write is retried against the new state.
func (s *RedisStore) Upsert(ctx context.Context, rec *Record) error {
	key := s.key(rec.TenantID, rec.Provider)

	txn := func(tx *redis.Tx) error {
		stored := rec.Clone()
		now := time.Now().UTC()
		stored.UpdatedAt = now

		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			stored.CreatedAt = now
		case err != nil:
			return err
		default:
			var prev Record
			if err := json.Unmarshal(data, &prev); err != nil {
				return fmt.Errorf("decode existing record: %w", err)
			}
			stored.CreatedAt = prev.CreatedAt
		}

		payload, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < upsertAttempts; i++ {
		err = s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return &StorageError{Op: "upsert", Err: err}
	}
	return nil
}

// Find returns the stored record, or nil when the pair was never connected.
func (s *RedisStore) Find(ctx context.Context, tenantID string, provider ProviderID) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(tenantID, provider)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &StorageError{Op: "find", Err: fmt.Errorf("decode record: %w", err)}
	}
	return &rec, nil
}

// Delete removes the record; deleting an absent key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, tenantID string, provider ProviderID) error {
	if err := s.client.Del(ctx, s.key(tenantID, provider)).Err(); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}
