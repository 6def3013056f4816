package jwt

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// 32-byte key, base64url without padding.
var testSecret = base64.RawURLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:     testSecret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestNewManagerRejectsBadSecret(t *testing.T) {
	cases := []string{"", "!!!not-base64!!!", base64.RawURLEncoding.EncodeToString([]byte("short"))}
	for _, secret := range cases {
		if _, err := NewManager(Config{Secret: secret, AccessTTL: time.Minute, RefreshTTL: time.Hour}); err == nil {
			t.Fatalf("expected secret %q to be rejected", secret)
		}
	}
}

func TestDecodeSecretAcceptsPaddedForm(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef!"))
	if !strings.HasSuffix(padded, "=") {
		t.Fatalf("test secret should carry padding, got %q", padded)
	}
	key, err := DecodeSecret(padded)
	if err != nil {
		t.Fatalf("decode padded secret: %v", err)
	}
	if len(key) != 33 {
		t.Fatalf("expected 33 key bytes, got %d", len(key))
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, err := m.IssueAccess(Subject{
		Username: "alice",
		FullName: "Alice Liddell",
		Email:    "alice@example.com",
		Avatar:   "https://cdn.example.com/a.png",
	}, map[string]any{"role": "admin", "sub": "mallory"})
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("extra claims must not override sub, got %q", claims.Subject)
	}
	if claims.FullName != "Alice Liddell" || claims.Email != "alice@example.com" || claims.Avatar != "https://cdn.example.com/a.png" {
		t.Fatalf("unexpected profile claims: %+v", claims)
	}
	if claims.SessionID() != "" {
		t.Fatalf("access token must not carry a session id, got %q", claims.SessionID())
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("expected 15m lifetime, got %v", got)
	}

	extra, err := m.ExtractExtra(token)
	if err != nil {
		t.Fatalf("extract extra: %v", err)
	}
	if len(extra) != 1 || extra["role"] != "admin" {
		t.Fatalf("expected only the role extra claim, got %v", extra)
	}
}

func TestRefreshTokenCarriesSessionID(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, sid, err := m.IssueRefresh("alice", nil)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if len(sid) != 9 {
		t.Fatalf("expected 9-digit session id, got %q", sid)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.SessionID() != sid {
		t.Fatalf("jti mismatch: %q != %q", claims.SessionID(), sid)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 7*24*time.Hour {
		t.Fatalf("expected 7d lifetime, got %v", got)
	}

	extracted, err := m.ExtractSessionID(token)
	if err != nil || extracted != sid {
		t.Fatalf("ExtractSessionID = %q, %v", extracted, err)
	}
	subject, err := m.ExtractSubject(token)
	if err != nil || subject != "alice" {
		t.Fatalf("ExtractSubject = %q, %v", subject, err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, err := m.IssueAccess(Subject{Username: "alice"}, nil)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	parts := strings.Split(token, ".")
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	forged := strings.Replace(string(payload), `"alice"`, `"admin"`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	if _, err := m.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	other, err := NewManager(Config{
		Secret:     base64.RawURLEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff")),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Now:        clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := other.IssueAccess(Subject{Username: "alice"}, nil)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyReportsExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, err := m.IssueAccess(Subject{Username: "alice"}, nil)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	clock.now = clock.now.Add(15 * time.Minute)
	if _, err := m.Verify(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at exact expiry, got %v", err)
	}
}

func TestVerifyReportsExpiryBeforeSignature(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	expired := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"sub": "alice",
		"exp": clock.now.Add(-time.Minute).Unix(),
	})
	token, err := expired.SignedString([]byte("a completely different signing key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	key, _ := DecodeSecret(testSecret)
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS512, gjwt.MapClaims{
		"sub": "alice",
		"exp": clock.now.Add(time.Minute).Unix(),
	})
	token, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	for _, input := range []string{"", "abc", "a.b", "a.b.c.d", "###.###.###"} {
		if _, err := m.Verify(input); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("input %q: expected ErrInvalidSignature, got %v", input, err)
		}
	}
	if _, err := m.ExtractSubject("garbage"); err == nil {
		t.Fatal("expected ExtractSubject to fail on garbage")
	}
}

func TestIssuerIsEnforcedWhenConfigured(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	plain := newTestManager(t, clock)
	scoped, err := NewManager(Config{
		Secret:     testSecret,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "projectauth",
		Now:        clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := plain.IssueAccess(Subject{Username: "alice"}, nil)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := scoped.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected token without issuer to be rejected, got %v", err)
	}
}
