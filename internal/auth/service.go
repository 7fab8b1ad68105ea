// auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ledgerlink/authgate/internal/provider"
	"github.com/ledgerlink/authgate/internal/secrets"
	"github.com/ledgerlink/authgate/internal/token"
)

// Service owns the token lifecycle for every (tenant, provider) connection:
// acquisition through the authorization-code exchange, encrypted persistence,
// and lazy expiry-aware refresh on read. There is no background refresh; a
// network call happens only when a read finds the stored token stale.
type Service struct {
	store     token.Store
	cipher    *secrets.Cipher
	providers *provider.Registry

	// refreshMargin is subtracted from the stored expiry when judging
	// freshness, so a token never expires mid-flight to the provider.
	refreshMargin time.Duration

	locks *keyLocks
}

// Connection describes the state of one tenant/provider link, for the status
// endpoint. No token material is ever included.
type Connection struct {
	Provider  token.ProviderID `json:"provider"`
	Connected bool             `json:"connected"`
	ExpiresAt time.Time        `json:"expires_at,omitempty"`
	OrgID     string           `json:"org_id,omitempty"`
	Scope     []string         `json:"scope,omitempty"`
}

// NewService creates the token lifecycle manager.
func NewService(store token.Store, cipher *secrets.Cipher, providers *provider.Registry, refreshMargin time.Duration) *Service {
	if refreshMargin <= 0 {
		refreshMargin = time.Minute
	}
	return &Service{
		store:         store,
		cipher:        cipher,
		providers:     providers,
		refreshMargin: refreshMargin,
		locks:         newKeyLocks(),
	}
}

// AuthorizationURL builds the consent URL for a provider, carrying the given
// anti-forgery state.
func (s *Service) AuthorizationURL(id token.ProviderID, state string) (string, error) {
	p, err := s.providers.Get(id)
	if err != nil {
		return "", err
	}
	return p.AuthorizationURL(state), nil
}

// Connect exchanges the single-use authorization grant for tokens, seals them
// and persists the connection. A provider rejection propagates as
// provider.ErrGrantRejected; the grant must not be retried.
func (s *Service) Connect(ctx context.Context, tenantID string, id token.ProviderID, grant provider.Grant) (*Connection, error) {
	p, err := s.providers.Get(id)
	if err != nil {
		return nil, err
	}

	resp, err := p.ExchangeCode(ctx, grant)
	if err != nil {
		if provider.IsTransient(err) {
			return nil, fmt.Errorf("%w: %v", ErrTemporarilyUnavailable, err)
		}
		return nil, err
	}
	// A connection is unusable without a refresh token; fail the flow rather
	// than persist a record that can never be refreshed.
	if resp.RefreshToken == "" {
		return nil, fmt.Errorf("provider %s returned no refresh token", id)
	}

	rec, err := s.seal(tenantID, id, resp)
	if err != nil {
		return nil, err
	}
	rec.OrgID = grant.OrgID
	rec.ExternalTenantID = grant.ExternalTenantID

	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	return &Connection{
		Provider:  id,
		Connected: true,
		ExpiresAt: rec.ExpiresAt,
		OrgID:     rec.OrgID,
		Scope:     rec.Scope,
	}, nil
}

// ValidAccessToken returns a plaintext access token guaranteed to outlive the
// refresh margin, refreshing and re-persisting transparently when the stored
// one is stale.
func (s *Service) ValidAccessToken(ctx context.Context, tenantID string, id token.ProviderID) (string, error) {
	rec, err := s.store.Find(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("%w: tenant %s provider %s", ErrNotConnected, tenantID, id)
	}
	if s.fresh(rec) {
		plain, err := s.cipher.Decrypt(rec.AccessToken)
		if err != nil {
			return "", fmt.Errorf("decrypt access token: %w", err)
		}
		return string(plain), nil
	}

	// Stale: serialize the refresh per pair so racing requests converge on a
	// single persisted winner.
	unlock := s.locks.lock(tenantID + ":" + string(id))
	defer unlock()

	// Re-read under the lock; a racing request may have refreshed already.
	rec, err = s.store.Find(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("%w: tenant %s provider %s", ErrNotConnected, tenantID, id)
	}
	if s.fresh(rec) {
		plain, err := s.cipher.Decrypt(rec.AccessToken)
		if err != nil {
			return "", fmt.Errorf("decrypt access token: %w", err)
		}
		return string(plain), nil
	}

	return s.refreshLocked(ctx, rec)
}

// refreshLocked performs the refresh exchange and persists the result. The
// caller holds the pair lock.
func (s *Service) refreshLocked(ctx context.Context, rec *token.Record) (string, error) {
	p, err := s.providers.Get(rec.Provider)
	if err != nil {
		return "", err
	}

	refreshPlain, err := s.cipher.Decrypt(rec.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("decrypt refresh token: %w", err)
	}

	resp, err := p.Refresh(ctx, string(refreshPlain))
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrRefreshTokenInvalid):
			// Terminal for this connection: remove the record so the tenant
			// is forced back through the consent flow.
			if delErr := s.store.Delete(ctx, rec.TenantID, rec.Provider); delErr != nil {
				return "", delErr
			}
			return "", fmt.Errorf("%w: %v", ErrReauthorizationRequired, err)
		case provider.IsTransient(err):
			// Record left untouched; the caller may retry later.
			return "", fmt.Errorf("%w: %v", ErrTemporarilyUnavailable, err)
		default:
			return "", fmt.Errorf("refresh %s token: %w", rec.Provider, err)
		}
	}

	updated, err := s.seal(rec.TenantID, rec.Provider, resp)
	if err != nil {
		return "", err
	}
	// Providers that do not rotate refresh tokens omit the field; keep the
	// stored one in that case.
	if resp.RefreshToken == "" {
		updated.RefreshToken = append([]byte(nil), rec.RefreshToken...)
	}
	if len(updated.Scope) == 0 {
		updated.Scope = rec.Scope
	}
	updated.OrgID = rec.OrgID
	updated.ExternalTenantID = rec.ExternalTenantID

	if err := s.store.Upsert(ctx, updated); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Disconnect revokes the stored tokens at the provider (best effort) and
// deletes the connection. Disconnecting an unconnected pair is a no-op.
func (s *Service) Disconnect(ctx context.Context, tenantID string, id token.ProviderID) error {
	rec, err := s.store.Find(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if rec != nil {
		s.revokeStored(ctx, rec)
	}
	return s.store.Delete(ctx, tenantID, id)
}

// revokeStored asks the provider to invalidate both stored tokens. Failures
// are logged, not surfaced: the local delete must win regardless.
func (s *Service) revokeStored(ctx context.Context, rec *token.Record) {
	p, err := s.providers.Get(rec.Provider)
	if err != nil {
		return
	}
	for _, sealed := range [][]byte{rec.RefreshToken, rec.AccessToken} {
		plain, err := s.cipher.Decrypt(sealed)
		if err != nil {
			log.Printf("warning: cannot decrypt %s token for revocation: %v", rec.Provider, err)
			continue
		}
		if err := p.Revoke(ctx, string(plain)); err != nil {
			log.Printf("warning: revoke %s token failed: %v", rec.Provider, err)
		}
	}
}

// Status reports the connection state without touching the provider.
func (s *Service) Status(ctx context.Context, tenantID string, id token.ProviderID) (*Connection, error) {
	rec, err := s.store.Find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &Connection{Provider: id, Connected: false}, nil
	}
	return &Connection{
		Provider:  id,
		Connected: true,
		ExpiresAt: rec.ExpiresAt,
		OrgID:     rec.OrgID,
		Scope:     rec.Scope,
	}, nil
}

// fresh reports whether the stored access token still outlives the refresh
// margin.
func (s *Service) fresh(rec *token.Record) bool {
	return time.Until(rec.ExpiresAt) > s.refreshMargin
}

// seal encrypts a token response into a persistable record.
func (s *Service) seal(tenantID string, id token.ProviderID, resp *provider.TokenResponse) (*token.Record, error) {
	access, err := s.cipher.Encrypt([]byte(resp.AccessToken))
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	var refresh []byte
	if resp.RefreshToken != "" {
		refresh, err = s.cipher.Encrypt([]byte(resp.RefreshToken))
		if err != nil {
			return nil, fmt.Errorf("encrypt refresh token: %w", err)
		}
	}
	return &token.Record{
		TenantID:     tenantID,
		Provider:     id,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC(),
		Scope:        resp.Scopes(),
	}, nil
}
