// auth/handlers.go
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ledgerlink/authgate/internal/provider"
	"github.com/ledgerlink/authgate/internal/token"
)

// Handler provides the HTTP surface of the auth flows.
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// generateState creates a secure random state for OAuth.
func (h *Handler) generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// routeProvider resolves the {provider} route variable.
func routeProvider(r *http.Request) (token.ProviderID, error) {
	return token.ParseProvider(mux.Vars(r)["provider"])
}

// ConnectHandler initiates the provider authorization flow by redirecting the
// tenant's user to the consent page.
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
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

	state, err := h.generateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Save state in the session for verification on the callback.
	session := GetSession(r)
	session.Values["oauth_state"] = state
	session.Values["oauth_state_expiry"] = time.Now().Add(10 * time.Minute).Unix()
	session.Values["oauth_tenant"] = tenantID
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	authURL, err := h.service.AuthorizationURL(providerID, state)
	if err != nil {
		http.Error(w, "Provider not configured", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// CallbackHandler receives the OAuth redirect, verifies state and exchanges
// the authorization code for tokens.
func (h *Handler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	providerID, err := routeProvider(r)
	if err != nil {
		http.Error(w, "Unknown provider", http.StatusNotFound)
		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		http.Error(w, "Invalid callback parameters", http.StatusBadRequest)
		return
	}

	session := GetSession(r)
	savedState, ok := session.Values["oauth_state"].(string)
	if !ok || savedState != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	expiry, ok := session.Values["oauth_state_expiry"].(int64)
	if !ok || time.Now().Unix() > expiry {
		http.Error(w, "State parameter expired", http.StatusBadRequest)
		return
	}
	// The tenant was bound to the state when the flow started; the callback
	// request itself carries no tenant header.
	tenantID, ok := session.Values["oauth_tenant"].(string)
	if !ok || tenantID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	delete(session.Values, "oauth_state")
	delete(session.Values, "oauth_state_expiry")
	delete(session.Values, "oauth_tenant")
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	grant := provider.Grant{
		Code:  code,
		State: state,
		// QuickBooks reports the company on the redirect.
		OrgID: query.Get("realmId"),
	}
	conn, err := h.service.Connect(r.Context(), tenantID, providerID, grant)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"provider":   conn.Provider,
		"org_id":     conn.OrgID,
		"expires_at": conn.ExpiresAt,
	})
}

// DisconnectHandler revokes and removes a tenant's provider connection.
func (h *Handler) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.Disconnect(r.Context(), tenantID, providerID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
	})
}

// StatusHandler reports whether the tenant is connected to the provider.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
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

	conn, err := h.service.Status(r.Context(), tenantID, providerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// writeServiceError maps the lifecycle error taxonomy onto HTTP statuses.
// Expected business outcomes become specific 4xx/503 responses; storage and
// credential failures fall through to a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotConnected):
		http.Error(w, "Provider not connected", http.StatusNotFound)
	case errors.Is(err, ErrReauthorizationRequired):
		http.Error(w, "Reauthorization required", http.StatusUnauthorized)
	case errors.Is(err, provider.ErrGrantRejected):
		http.Error(w, "Provider rejected the authorization code", http.StatusBadRequest)
	case errors.Is(err, ErrTemporarilyUnavailable):
		http.Error(w, "Provider temporarily unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
