package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/projectauth"
)

type fakeAuthenticator struct {
	token string
}

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (projectauth.AuthenticatedPrincipal, error) {
	if token != f.token {
		return projectauth.AuthenticatedPrincipal{}, projectauth.ErrTokenInvalidSignature
	}
	return projectauth.AuthenticatedPrincipal{Username: "alice"}, nil
}

func TestGuard(t *testing.T) {
	var seen projectauth.AuthenticatedPrincipal
	handler := Guard(fakeAuthenticator{token: "good"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := projectauth.PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("expected principal in context")
		}
		seen = p
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"good", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusNoContent},
		{"bearer good", http.StatusNoContent},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != c.want {
			t.Fatalf("header %q: got %d, want %d", c.header, rec.Code, c.want)
		}
		if c.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("header %q: missing WWW-Authenticate", c.header)
		}
	}
	if seen.Username != "alice" {
		t.Fatalf("unexpected principal %+v", seen)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER abc", "abc", true},
		{"  Bearer abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", c.header)
		token, ok := BearerToken(req)
		if token != c.token || ok != c.ok {
			t.Fatalf("header %q: got (%q, %v), want (%q, %v)", c.header, token, ok, c.token, c.ok)
		}
	}
}

func TestGuardWithoutAuthenticator(t *testing.T) {
	handler := Guard(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestRefreshCookieRoundTrip(t *testing.T) {
	cfg := projectauth.CookieConfig{Name: "refresh_token", Domain: "example.com", Path: "/auth", Secure: true}
	rec := httptest.NewRecorder()
	SetRefreshCookie(rec, cfg, &projectauth.TokenPair{RefreshToken: "rt-1", RefreshExpiresIn: 7 * 24 * time.Hour})

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie flags %+v", c)
	}
	if c.MaxAge != 604800 || c.Domain != "example.com" || c.Path != "/auth" {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(c)
	token, err := RefreshTokenFromRequest(req, cfg)
	if err != nil || token != "rt-1" {
		t.Fatalf("RefreshTokenFromRequest = %q, %v", token, err)
	}

	empty := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	if _, err := RefreshTokenFromRequest(empty, cfg); !errors.Is(err, ErrNoRefreshCookie) {
		t.Fatalf("expected ErrNoRefreshCookie, got %v", err)
	}
}

func TestClearRefreshCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearRefreshCookie(rec, projectauth.CookieConfig{Name: "refresh_token", Path: "/"})
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("expected an expiring cookie, got %+v", cookies)
	}
}

func TestClientIP(t *testing.T) {
	for addr, want := range map[string]string{
		"198.51.100.4:5123": "198.51.100.4",
		"[2001:db8::1]:443": "2001:db8::1",
	} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		if got := clientIP(r); got != want {
			t.Fatalf("clientIP(%q) = %q, want %q", addr, got, want)
		}
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("clientIP with X-Forwarded-For = %q", got)
	}
}
