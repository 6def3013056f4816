package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/projectauth"
)

// ErrNoRefreshCookie is returned by RefreshTokenFromRequest when the cookie is absent or empty.
var ErrNoRefreshCookie = errors.New("refresh token cookie missing")

// SetRefreshCookie writes the refresh token of pair as an HttpOnly, SameSite=Lax cookie
// living as long as the token.
func SetRefreshCookie(w http.ResponseWriter, cfg projectauth.CookieConfig, pair *projectauth.TokenPair) {
	if pair == nil {
		return
	}
	http.SetCookie(w, refreshCookie(cfg, pair.RefreshToken, pair.RefreshExpiresIn))
}

// ClearRefreshCookie expires the refresh-token cookie.
func ClearRefreshCookie(w http.ResponseWriter, cfg projectauth.CookieConfig) {
	c := refreshCookie(cfg, "", 0)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

// RefreshTokenFromRequest reads the refresh token set by SetRefreshCookie.
func RefreshTokenFromRequest(r *http.Request, cfg projectauth.CookieConfig) (string, error) {
	c, err := r.Cookie(cfg.Name)
	if err != nil || c.Value == "" {
		return "", ErrNoRefreshCookie
	}
	return c.Value, nil
}

func refreshCookie(cfg projectauth.CookieConfig, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Domain:   cfg.Domain,
		Path:     cfg.Path,
		MaxAge:   int(ttl / time.Second),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
