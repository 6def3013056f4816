package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/projectauth"
)

// Authenticator verifies access tokens. *projectauth.Engine implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (projectauth.AuthenticatedPrincipal, error)
}

// Guard rejects requests without a valid "Authorization: Bearer" access token and stores
// the verified principal in the request context, see projectauth.PrincipalFromContext.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				unauthorized(w)
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			principal, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := projectauth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestContext copies the client IP and User-Agent of r into the request context, where
// the Engine picks them up for audit metadata.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := projectauth.WithClientIP(r.Context(), clientIP(r))
		if ua := r.UserAgent(); ua != "" {
			ctx = projectauth.WithUserAgent(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// BearerToken returns the token of r's "Authorization: Bearer" header. The scheme is
// matched case-insensitively and surrounding whitespace is ignored.
func BearerToken(r *http.Request) (string, bool) {
	const bearer = "Bearer "
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
