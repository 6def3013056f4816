package projectauth

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/projectauth/jwt"
	"github.com/MrEthical07/projectauth/password"
	"github.com/MrEthical07/projectauth/session"
)

// Config holds every tunable of the Engine. Builder clones it, so callers may reuse or
// mutate their copy after Build.
type Config struct {
	JWT           JWTConfig
	Session       SessionConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	Account       AccountConfig
	Cookie        CookieConfig
	Audit         AuditConfig
	OAuth         OAuthConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures HS256 token signing. Secret is the base64url (padded or raw)
// encoding of a key of at least 32 bytes.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the Redis session registry. Records expire with the refresh TTL.
type SessionConfig struct {
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id cost parameters and the accepted password length in bytes.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
	MaxLength   int
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig controls recovery tokens and the link handed to the notifier:
// FrontendBaseURL + ResetPath + "?token=<token>".
type PasswordResetConfig struct {
	TokenTTL             time.Duration
	FrontendBaseURL      string
	ResetPath            string
	RevokeSessionOnReset bool
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

type AccountConfig struct {
	DefaultRole string
	// DefaultAvatars is the set a missing avatar is picked from, by hash of the username.
	DefaultAvatars []string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes the refresh-token cookie set by the middleware package.
type CookieConfig struct {
	Name   string
	Domain string
	Path   string
	Secure bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
OAUTH CONFIG
====================================
*/

// OAuthConfig holds the client registrations of the supported providers. A provider with
// an empty ClientID is not configured.
type OAuthConfig struct {
	Google OAuthProviderConfig
	GitHub OAuthProviderConfig
}

// OAuthProviderConfig is one client registration. Empty endpoint URLs use the provider's
// public defaults.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	EmailsURL    string
}

// Enabled reports whether the provider has client credentials.
func (c OAuthProviderConfig) Enabled() bool {
	return c.ClientID != ""
}

// DefaultConfig returns a Config with every field except JWT.Secret set to production
// defaults.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Session: SessionConfig{
			RedisPrefix: session.DefaultPrefix,
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
			MinLength:   pw.MinPasswordBytes,
			MaxLength:   pw.MaxPasswordBytes,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL:             10 * time.Minute,
			ResetPath:            "/reset-password",
			RevokeSessionOnReset: true,
		},
		Account: AccountConfig{
			DefaultRole: "user",
		},
		Cookie: CookieConfig{
			Name:   "refresh_token",
			Path:   "/",
			Secure: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Account.DefaultAvatars != nil {
		out.Account.DefaultAvatars = append([]string(nil), cfg.Account.DefaultAvatars...)
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	if _, err := jwt.DecodeSecret(c.JWT.Secret); err != nil {
		return err
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}

	// Session
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Password
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}

	// Password reset
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}
	if c.PasswordReset.FrontendBaseURL != "" {
		u, err := url.Parse(c.PasswordReset.FrontendBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("PasswordReset FrontendBaseURL must be an absolute URL")
		}
	}
	if c.PasswordReset.ResetPath != "" && !strings.HasPrefix(c.PasswordReset.ResetPath, "/") {
		return errors.New("PasswordReset ResetPath must start with /")
	}

	// Account
	if strings.TrimSpace(c.Account.DefaultRole) == "" {
		return errors.New("Account DefaultRole must not be empty")
	}

	// Cookie
	if c.Cookie.Name == "" {
		return errors.New("Cookie Name must not be empty")
	}
	if c.Cookie.Path == "" || !strings.HasPrefix(c.Cookie.Path, "/") {
		return errors.New("Cookie Path must start with /")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// OAuth
	for name, p := range map[string]OAuthProviderConfig{"Google": c.OAuth.Google, "GitHub": c.OAuth.GitHub} {
		if p.Enabled() && p.ClientSecret == "" {
			return errors.New("OAuth " + name + " ClientSecret is required when ClientID is set")
		}
	}

	return nil
}

// resetURL builds the front-end link for token.
func (c *Config) resetURL(token string) string {
	base := strings.TrimRight(c.PasswordReset.FrontendBaseURL, "/")
	return base + c.PasswordReset.ResetPath + "?token=" + url.QueryEscape(token)
}
