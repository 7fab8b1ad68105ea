// auth/service_test.go
package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlink/authgate/internal/provider"
	"github.com/ledgerlink/authgate/internal/secrets"
	"github.com/ledgerlink/authgate/internal/token"
)

// fakeProvider is a scriptable Provider that counts its network calls.
type fakeProvider struct {
	id token.ProviderID

	mu               sync.Mutex
	exchangeCalls    int
	refreshCalls     int
	revokeCalls      int
	lastRefreshToken string

	exchangeResp *provider.TokenResponse
	exchangeErr  error
	refreshResp  *provider.TokenResponse
	refreshErr   error
}

func (f *fakeProvider) ID() token.ProviderID { return f.id }

func (f *fakeProvider) AuthorizationURL(state string) string {
	return "https://consent.example/auth?state=" + state
}

func (f *fakeProvider) ExchangeCode(ctx context.Context, grant provider.Grant) (*provider.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeResp, nil
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (*provider.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	f.lastRefreshToken = refreshToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshResp, nil
}

func (f *fakeProvider) Revoke(ctx context.Context, tok string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeCalls++
	return nil
}

func (f *fakeProvider) counts() (exchange, refresh int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeCalls, f.refreshCalls
}

func newTestService(t *testing.T, p *fakeProvider) (*Service, *token.MemoryStore) {
	t.Helper()
	cipher, err := secrets.NewCipher([]byte("service-test-key"))
	require.NoError(t, err)
	store := token.NewMemoryStore()
	return NewService(store, cipher, provider.NewRegistry(p), time.Minute), store
}

// expireRecord rewrites the stored expiry so the next read falls inside the
// refresh margin.
func expireRecord(t *testing.T, store *token.MemoryStore, tenantID string, id token.ProviderID) {
	t.Helper()
	ctx := context.Background()
	rec, err := store.Find(ctx, tenantID, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	rec.ExpiresAt = time.Now().Add(-time.Minute).UTC()
	require.NoError(t, store.Upsert(ctx, rec))
}

func zohoFake() *fakeProvider {
	return &fakeProvider{
		id: token.ProviderZoho,
		exchangeResp: &provider.TokenResponse{
			AccessToken:  "A1",
			RefreshToken: "R1",
			ExpiresIn:    3600,
			Scope:        "invoices.read",
		},
		refreshResp: &provider.TokenResponse{
			AccessToken:  "A2",
			RefreshToken: "R2",
			ExpiresIn:    3600,
		},
	}
}

func TestConnectThenReadReturnsExchangedToken(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, _ := newTestService(t, fake)

	conn, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)
	assert.True(t, conn.Connected)
	assert.Equal(t, []string{"invoices.read"}, conn.Scope)

	got, err := svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Equal(t, "A1", got)

	_, refreshes := fake.counts()
	assert.Zero(t, refreshes, "a fresh token must not trigger a refresh")
}

func TestConnectPersistsEncryptedTokens(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123", OrgID: "org-7"})
	require.NoError(t, err)

	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	require.NotNil(t, rec)

	// Plaintext must never reach the store.
	assert.NotContains(t, string(rec.AccessToken), "A1")
	assert.NotContains(t, string(rec.RefreshToken), "R1")
	assert.Equal(t, "org-7", rec.OrgID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), rec.ExpiresAt, 5*time.Second)
}

func TestExpiredReadRefreshesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)
	expireRecord(t, store, "T1", token.ProviderZoho)

	got, err := svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Equal(t, "A2", got)
	assert.Equal(t, "R1", fake.lastRefreshToken)

	_, refreshes := fake.counts()
	assert.Equal(t, 1, refreshes)

	// Persisted state reflects the new expiry: a subsequent read returns the
	// refreshed token with no further network call.
	got, err = svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Equal(t, "A2", got)
	_, refreshes = fake.counts()
	assert.Equal(t, 1, refreshes)

	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.True(t, rec.ExpiresAt.After(time.Now().Add(30*time.Minute)))
}

func TestReadWithinMarginTriggersRefresh(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)

	// Not yet expired, but inside the safety margin.
	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	rec.ExpiresAt = time.Now().Add(30 * time.Second).UTC()
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Equal(t, "A2", got)
}

func TestRefreshKeepsStoredRefreshTokenWhenNotRotated(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	fake.refreshResp = &provider.TokenResponse{AccessToken: "A2", ExpiresIn: 3600}
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)
	expireRecord(t, store, "T1", token.ProviderZoho)

	_, err = svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)

	// Expire again; the second refresh must still present R1.
	expireRecord(t, store, "T1", token.ProviderZoho)
	_, err = svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Equal(t, "R1", fake.lastRefreshToken)
}

func TestNotConnected(t *testing.T) {
	svc, _ := newTestService(t, zohoFake())

	_, err := svc.ValidAccessToken(context.Background(), "T1", token.ProviderZoho)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRefreshTokenInvalidForcesReauthorization(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)
	expireRecord(t, store, "T1", token.ProviderZoho)

	fake.refreshErr = fmt.Errorf("%w: oauth error \"invalid_grant\"", provider.ErrRefreshTokenInvalid)
	_, err = svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	assert.ErrorIs(t, err, ErrReauthorizationRequired)

	// The dead connection is removed so the tenant redoes the consent flow.
	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTransientRefreshFailureLeavesRecordIntact(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)
	expireRecord(t, store, "T1", token.ProviderZoho)

	fake.refreshErr = &provider.TransientError{Err: fmt.Errorf("connection reset")}
	_, err = svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	assert.ErrorIs(t, err, ErrTemporarilyUnavailable)

	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	require.NotNil(t, rec)

	// Provider recovers: the same record refreshes successfully.
	fake.refreshErr = nil
	got, err := svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Equal(t, "A2", got)
}

func TestConnectGrantRejected(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	fake.exchangeErr = fmt.Errorf("%w: oauth error \"invalid_grant\"", provider.ErrGrantRejected)
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "bad"})
	assert.ErrorIs(t, err, provider.ErrGrantRejected)

	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestConnectWithoutRefreshTokenFails(t *testing.T) {
	fake := zohoFake()
	fake.exchangeResp = &provider.TokenResponse{AccessToken: "A1", ExpiresIn: 3600}
	svc, _ := newTestService(t, fake)

	_, err := svc.Connect(context.Background(), "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	assert.Error(t, err)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx, "T1", token.ProviderZoho))
	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 2, fake.revokeCalls, "both stored tokens are revoked")

	// Second disconnect: no record, no error, no further revocations.
	require.NoError(t, svc.Disconnect(ctx, "T1", token.ProviderZoho))
	assert.Equal(t, 2, fake.revokeCalls)
}

func TestCorruptStoredCredentialSurfaces(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)

	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	rec.AccessToken = []byte("not produced by the cipher")
	require.NoError(t, store.Upsert(ctx, rec))

	_, err = svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
	assert.ErrorIs(t, err, secrets.ErrCorruptCredential)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, _ := newTestService(t, fake)

	conn, err := svc.Status(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.False(t, conn.Connected)

	_, err = svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123", OrgID: "org-7"})
	require.NoError(t, err)

	conn, err = svc.Status(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	assert.True(t, conn.Connected)
	assert.Equal(t, "org-7", conn.OrgID)
	assert.False(t, conn.ExpiresAt.IsZero())
}

func TestConcurrentExpiredReadsRefreshOnce(t *testing.T) {
	ctx := context.Background()
	fake := zohoFake()
	svc, store := newTestService(t, fake)

	_, err := svc.Connect(ctx, "T1", token.ProviderZoho, provider.Grant{Code: "code123"})
	require.NoError(t, err)
	expireRecord(t, store, "T1", token.ProviderZoho)

	const n = 16
	results := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ValidAccessToken(ctx, "T1", token.ProviderZoho)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "A2", results[i])
	}

	_, refreshes := fake.counts()
	assert.Equal(t, 1, refreshes, "racing readers must converge on a single refresh")

	rec, err := store.Find(ctx, "T1", token.ProviderZoho)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.ExpiresAt.After(time.Now().Add(30*time.Minute)))
}
