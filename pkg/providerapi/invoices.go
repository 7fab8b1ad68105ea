// providerapi/invoices.go
package providerapi

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ledgerlink/authgate/internal/auth"
	"github.com/ledgerlink/authgate/internal/token"
)

// InvoiceHandler exposes a downstream invoice fetch through the gateway. It
// sits behind the provider auth middleware, so a valid token is guaranteed by
// the time a request arrives here.
type InvoiceHandler struct {
	client *Client
}

// NewInvoiceHandler creates an invoice handler.
func NewInvoiceHandler(client *Client) *InvoiceHandler {
	return &InvoiceHandler{client: client}
}

// ListInvoices proxies the tenant's invoice list from the connected provider.
func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.GetTenantID(r.Context())
	providerID, err := token.ParseProvider(mux.Vars(r)["provider"])
	if err != nil {
		http.Error(w, "Unknown provider", http.StatusNotFound)
		return
	}

	resp, err := h.client.Do(r.Context(), tenantID, providerID, http.MethodGet, "/invoices", nil)
	if err != nil {
		http.Error(w, "Failed to fetch invoices: "+err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, resp.Body)
}
