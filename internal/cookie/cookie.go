// Package cookie provides the cookie helpers used for sessions and CSRF tokens.
// All session cookies go through this package so flags stay consistent.
package cookie

import (
	"net/http"
)

// Config holds cookie configuration.
type Config struct {
	// BaseDomain scopes cookies to a domain (e.g. "laroseboutique.com").
	// Empty means host-only cookies, which is what local development wants.
	BaseDomain string

	// Secure determines whether cookies require HTTPS.
	Secure bool
}

// NewConfig creates a new cookie configuration.
//
// Example:
//
//	cfg := cookie.NewConfig("laroseboutique.com", true) // production
//	cfg := cookie.NewConfig("", false)                  // development
func NewConfig(baseDomain string, secure bool) *Config {
	return &Config{
		BaseDomain: baseDomain,
		Secure:     secure,
	}
}

func (c *Config) domain() string {
	if c.BaseDomain == "" {
		return ""
	}
	return "." + c.BaseDomain
}

// SetSession sets an HttpOnly, SameSite=Lax cookie on path "/".
func (c *Config) SetSession(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.domain(),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession removes a cookie by setting MaxAge to -1.
// The domain must match the one the cookie was set with.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Domain:   c.domain(),
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetReadable sets a cookie that client scripts may read, such as the CSRF
// token echoed back in a request header.
func (c *Config) SetReadable(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.domain(),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Common cookie names used throughout the application.
const (
	// SessionCookieName carries the session id. The cart and the logged-in
	// user both live in the session.
	SessionCookieName = "boutique_session"

	// CSRFCookieName stores the CSRF token for form protection.
	CSRFCookieName = "boutique_csrf"
)
