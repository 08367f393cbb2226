package auth

import (
	"net/http"
	"time"
)

// Cookie names used for browser clients.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// CookieConfig controls how auth cookies are written.
type CookieConfig struct {
	Domain string
	// Secure marks cookies Secure and SameSite=None so a frontend on another
	// origin can send them; otherwise SameSite=Lax.
	Secure bool
}

func (c CookieConfig) cookie(name, value string, expires time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.Secure {
		ck.SameSite = http.SameSiteNoneMode
	}
	if value == "" {
		ck.MaxAge = -1
	} else {
		ck.MaxAge = int(time.Until(expires).Seconds())
	}
	return ck
}

// SetTokenCookies writes the pair as HttpOnly cookies.
func (c CookieConfig) SetTokenCookies(w http.ResponseWriter, p Pair) {
	http.SetCookie(w, c.cookie(AccessCookieName, p.AccessToken, p.AccessExpiresAt))
	http.SetCookie(w, c.cookie(RefreshCookieName, p.RefreshToken, p.RefreshExpiresAt))
}

// ClearTokenCookies expires both auth cookies.
func (c CookieConfig) ClearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessCookieName, "", time.Unix(0, 0)))
	http.SetCookie(w, c.cookie(RefreshCookieName, "", time.Unix(0, 0)))
}

// RefreshTokenFromRequest returns the refresh token from its cookie, if set.
func RefreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		return c.Value
	}
	return ""
}
