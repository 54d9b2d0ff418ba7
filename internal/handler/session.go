package handler

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookieName identifies the anonymous cart session.
const SessionCookieName = "forja_session"

// sessionTTLSeconds matches the cart TTL in the store.
const sessionTTLSeconds = 30 * 24 * 60 * 60

// CookieConfig controls session cookie attributes.
type CookieConfig struct {
	// Secure requires HTTPS. True in production, false in development.
	Secure bool
}

// EnsureSession returns the request's session ID, minting a new one and
// setting the cookie when the request has none. Carts are anonymous, so
// the session cookie is the only identity the API needs.
func (c CookieConfig) EnsureSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionID := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   sessionTTLSeconds,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}
