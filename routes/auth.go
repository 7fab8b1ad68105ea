// routes/auth.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ledgerlink/authgate/internal/auth"
)

// RegisterAuthRoutes registers all authentication-related routes.
func RegisterAuthRoutes(router *mux.Router, authHandler *auth.Handler) {
	// The connect redirect needs the tenant; the callback arrives from the
	// provider and recovers the tenant from the state session instead.
	router.Handle("/auth/{provider}/connect", auth.TenantMiddleware(http.HandlerFunc(authHandler.ConnectHandler))).Methods("GET")
	router.HandleFunc("/auth/{provider}/callback", authHandler.CallbackHandler).Methods("GET")

	// Protected auth routes - require tenant authentication.
	protectedRouter := router.PathPrefix("/auth").Subrouter()
	protectedRouter.Use(auth.TenantMiddleware)
	protectedRouter.HandleFunc("/{provider}/disconnect", authHandler.DisconnectHandler).Methods("POST")
	protectedRouter.HandleFunc("/{provider}/status", authHandler.StatusHandler).Methods("GET")
}
