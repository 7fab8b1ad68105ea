// routes/routes.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/ledgerlink/authgate/internal/auth"
	"github.com/ledgerlink/authgate/pkg/providerapi"
)

// SetupRoutes configures all API routes.
func SetupRoutes(
	router *mux.Router,
	authHandler *auth.Handler,
	authService *auth.Service,
	invoiceHandler *providerapi.InvoiceHandler,
) {
	// Register auth routes
	RegisterAuthRoutes(router, authHandler)

	// API routes - protected with a valid provider token
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.TenantMiddleware)
	apiRouter.Use(auth.ProviderAuthMiddleware(authService))

	apiRouter.HandleFunc("/{provider}/invoices", invoiceHandler.ListInvoices).Methods("GET")
}
