// auth/session.go
package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

var (
	store *sessions.CookieStore
)

// InitSessionStore initializes the cookie store used to carry OAuth state
// across the consent redirect.
func InitSessionStore(secret []byte) {
	store = sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600, // state cookies only live for the consent round-trip
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// GetSession retrieves the auth session.
func GetSession(r *http.Request) *sessions.Session {
	session, _ := store.Get(r, "authgate-session")
	return session
}
