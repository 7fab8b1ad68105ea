// token/record.go
package token

import (
	"fmt"
	"time"
)

// ProviderID identifies an external accounting system.
type ProviderID string

// Supported providers.
const (
	ProviderZoho       ProviderID = "zoho"
	ProviderQuickBooks ProviderID = "quickbooks"
	ProviderXero       ProviderID = "xero"
)

// ParseProvider validates a provider identifier from an untrusted source,
// such as a route variable.
func ParseProvider(s string) (ProviderID, error) {
	switch ProviderID(s) {
	case ProviderZoho, ProviderQuickBooks, ProviderXero:
		return ProviderID(s), nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Record is one tenant's connection to one provider. Token fields hold
// ciphertext produced by the credential cipher; plaintext tokens never reach
// the store.
type Record struct {
	TenantID         string     `json:"tenant_id"`
	Provider         ProviderID `json:"provider"`
	AccessToken      []byte     `json:"access_token"`
	RefreshToken     []byte     `json:"refresh_token"`
	ExpiresAt        time.Time  `json:"expires_at"`
	Scope            []string   `json:"scope,omitempty"`
	OrgID            string     `json:"org_id,omitempty"`
	ExternalTenantID string     `json:"external_tenant_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate records without aliasing
// store-owned state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.AccessToken = append([]byte(nil), r.AccessToken...)
	out.RefreshToken = append([]byte(nil), r.RefreshToken...)
	out.Scope = append([]string(nil), r.Scope...)
	return &out
}
