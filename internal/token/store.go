// token/store.go
package token

import (
	"context"
	"fmt"
)

// Store persists tenant/provider token records. At most one record exists per
// (tenant, provider) pair; Upsert is the serialization point for concurrent
// writers of the same pair.
type Store interface {
	// Upsert inserts the record, or replaces the tokens and expiry of an
	// existing record while preserving its creation timestamp.
	Upsert(ctx context.Context, rec *Record) error

	// Find returns the record for the pair, or nil if the tenant never
	// connected. Absence is not an error.
	Find(ctx context.Context, tenantID string, provider ProviderID) (*Record, error)

	// Delete removes the record. Deleting a pair that has no record is not an
	// error.
	Delete(ctx context.Context, tenantID string, provider ProviderID) error
}

// StorageError wraps any persistence-layer failure so callers can tell an
// infrastructure fault apart from a missing record.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("token store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
