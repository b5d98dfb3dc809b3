package httpapi

import (
	"net/http"
	"time"
)

const refreshCookieName = "refreshToken"

// setRefreshCookie attaches the refresh token as an HttpOnly strict-same-site
// cookie. The Secure flag follows the production setting so local development
// over plain HTTP keeps working.
func setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration, production bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh cookie immediately.
func clearRefreshCookie(w http.ResponseWriter, production bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteStrictMode,
	})
}
