package server

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	// sessionCookieName identifies the browser session. No Max-Age: the
	// cookie dies with the browser, and with it the login.
	sessionCookieName = "void_sid"
	// cartCookieName identifies the durable cart, which outlives sessions.
	cartCookieName = "void_cart"

	cartCookieMaxAge = 365 * 24 * 60 * 60
)

// sessionID returns the browser-session ID, minting and setting a new cookie
// on first contact.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// cartID returns the durable cart ID, minting and setting a new cookie on
// first contact.
func (s *Server) cartID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(cartCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   cartCookieMaxAge,
	})
	return id
}
