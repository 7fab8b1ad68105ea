// token/memory_store.go
package token

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store on a process-local map. It backs tests and the
// degraded mode of FallbackStore when Redis is unreachable.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

func (s *MemoryStore) key(tenantID string, provider ProviderID) string {
	return tenantID + ":" + string(provider)
}

// Upsert inserts or replaces the record, preserving CreatedAt on replace. The
// store mutex makes the read-modify-write atomic.
func (s *MemoryStore) Upsert(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := rec.Clone()
	now := time.Now().UTC()
	stored.UpdatedAt = now
	if prev, ok := s.records[s.key(rec.TenantID, rec.Provider)]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	s.records[s.key(rec.TenantID, rec.Provider)] = stored
	return nil
}

// Find returns a copy of the stored record, or nil when absent.
func (s *MemoryStore) Find(ctx context.Context, tenantID string, provider ProviderID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[s.key(tenantID, provider)].Clone(), nil
}

// Delete removes the record; absent keys are a no-op.
func (s *MemoryStore) Delete(ctx context.Context, tenantID string, provider ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, s.key(tenantID, provider))
	return nil
}
