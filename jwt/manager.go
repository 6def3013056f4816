package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/projectauth/internal"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSignature is returned for malformed tokens and signature mismatches.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrExpired is returned when the token expiry has passed.
	ErrExpired = errors.New("token expired")
)

const (
	claimSubject  = "sub"
	claimIssuer   = "iss"
	claimIssuedAt = "iat"
	claimExpires  = "exp"
	claimID       = "jti"
	claimAvatar   = "avatar"
	claimFullName = "fullName"
	claimEmail    = "email"
)

// Config controls token lifetimes and the HS256 signing key.
//
// Secret is the base64url encoding (padded or raw) of the shared signing key.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Now        func() time.Time
}

// Manager signs and verifies access and refresh tokens.
//
// Manager holds no mutable state after NewManager and is safe for concurrent use.
type Manager struct {
	config Config
	key    []byte
	now    func() time.Time
}

// Claims is the verified claim-set of an access or refresh token. Refresh tokens carry the
// session id in the registered ID (jti) claim and leave the profile claims empty.
type Claims struct {
	Avatar   string `json:"avatar,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionID returns the refresh-token session id, empty for access tokens.
func (c *Claims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

// Subject carries the account attributes embedded into access tokens.
type Subject struct {
	Username string
	FullName string
	Email    string
	Avatar   string
}

// NewManager validates cfg and decodes the signing secret.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	key, err := DecodeSecret(cfg.Secret)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{config: cfg, key: key, now: now}, nil
}

// DecodeSecret decodes a base64url secret, accepting both padded and raw forms.
func DecodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, fmt.Errorf("signing secret is not base64url: %w", err)
	}
	if len(key) < 32 {
		return nil, errors.New("signing secret must decode to at least 32 bytes")
	}
	return key, nil
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// IssueAccess mints an access token for subject. Extra claims are embedded as-is but can
// never replace the registered or profile claims.
func (m *Manager) IssueAccess(subject Subject, extra map[string]any) (string, error) {
	if subject.Username == "" {
		return "", errors.New("access token requires a subject")
	}

	now := m.now()
	claims := m.baseClaims(extra, subject.Username, now, m.config.AccessTTL)
	claims[claimAvatar] = subject.Avatar
	claims[claimFullName] = subject.FullName
	claims[claimEmail] = subject.Email

	return m.sign(claims)
}

// IssueRefresh mints a refresh token for username with a freshly generated session id and
// returns both.
func (m *Manager) IssueRefresh(username string, extra map[string]any) (string, string, error) {
	if username == "" {
		return "", "", errors.New("refresh token requires a subject")
	}

	sessionID, err := internal.NewSessionID()
	if err != nil {
		return "", "", err
	}

	claims := m.baseClaims(extra, username, m.now(), m.config.RefreshTTL)
	claims[claimID] = sessionID

	token, err := m.sign(claims)
	if err != nil {
		return "", "", err
	}
	return token, sessionID, nil
}

// Verify checks structure, expiry and signature, in that order. It never consults any
// session state.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	unverified, err := m.parseUnverified(tokenStr)
	if err != nil {
		return nil, err
	}
	if unverified.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidSignature)
	}
	if !m.now().Before(unverified.ExpiresAt.Time) {
		return nil, ErrExpired
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSignature
	}

	return claims, nil
}

// ExtractSubject returns the sub claim after a structural parse only.
func (m *Manager) ExtractSubject(tokenStr string) (string, error) {
	claims, err := m.parseUnverified(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractSessionID returns the jti claim after a structural parse only.
func (m *Manager) ExtractSessionID(tokenStr string) (string, error) {
	claims, err := m.parseUnverified(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

// ExtractExtra returns the claims beyond the registered and profile ones after a structural
// parse only. Callers run Verify first.
func (m *Manager) ExtractExtra(tokenStr string) (map[string]any, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return nil, fmt.Errorf("%w: malformed token", ErrInvalidSignature)
	}
	raw := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	for _, k := range reservedClaims {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

var reservedClaims = []string{
	claimSubject, claimIssuer, claimIssuedAt, claimExpires, claimID,
	claimAvatar, claimFullName, claimEmail,
}

func (m *Manager) parseUnverified(tokenStr string) (*Claims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return nil, fmt.Errorf("%w: malformed token", ErrInvalidSignature)
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return claims, nil
}

func (m *Manager) baseClaims(extra map[string]any, subject string, now time.Time, ttl time.Duration) jwt.MapClaims {
	claims := make(jwt.MapClaims, len(extra)+6)
	for k, v := range extra {
		claims[k] = v
	}
	delete(claims, claimID)
	delete(claims, claimIssuer)

	claims[claimSubject] = subject
	claims[claimIssuedAt] = jwt.NewNumericDate(now)
	claims[claimExpires] = jwt.NewNumericDate(now.Add(ttl))
	if m.config.Issuer != "" {
		claims[claimIssuer] = m.config.Issuer
	}
	return claims
}

func (m *Manager) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}
