// auth/middleware.go
package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys.
type contextKey string

// Context keys.
const (
	TenantIDKey    contextKey = "tenant_id"
	AccessTokenKey contextKey = "access_token"
)

// GetTenantID extracts the tenant ID from context.
func GetTenantID(ctx context.Context) string {
	tenantID, _ := ctx.Value(TenantIDKey).(string)
	return tenantID
}

// GetAccessToken extracts the provider access token placed in context by
// ProviderAuthMiddleware.
func GetAccessToken(ctx context.Context) string {
	tok, _ := ctx.Value(AccessTokenKey).(string)
	return tok
}

// TenantMiddleware resolves the tenant from the request and stores it in the
// context. Tenant identifiers are UUID strings; anything else is rejected
// before reaching a handler.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Tenant-ID")
		if raw == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "Invalid tenant ID", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), TenantIDKey, tenantID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ProviderAuthMiddleware ensures the tenant holds a valid token for the
// provider named in the route, refreshing it if needed, and makes the token
// available to downstream handlers.
func ProviderAuthMiddleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := GetTenantID(r.Context())
			if tenantID == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			providerID, err := routeProvider(r)
			if err != nil {
				http.Error(w, "Unknown provider", http.StatusNotFound)
				return
			}

			accessToken, err := service.ValidAccessToken(r.Context(), tenantID, providerID)
			if err != nil {
				writeServiceError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), AccessTokenKey, accessToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
