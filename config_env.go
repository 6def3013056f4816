package projectauth

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// configEnv holds raw env values. TTLs are whole seconds.
type configEnv struct {
	JWTSecret            string   `env:"PROJECTAUTH_JWT_SECRET,required"`
	JWTIssuer            string   `env:"PROJECTAUTH_JWT_ISSUER"`
	AccessTTLSeconds     int      `env:"PROJECTAUTH_ACCESS_TTL_SECONDS"       envDefault:"900"`
	RefreshTTLSeconds    int      `env:"PROJECTAUTH_REFRESH_TTL_SECONDS"      envDefault:"604800"`
	RedisPrefix          string   `env:"PROJECTAUTH_REDIS_PREFIX"             envDefault:"refresh"`
	CookieName           string   `env:"PROJECTAUTH_COOKIE_NAME"              envDefault:"refresh_token"`
	CookieDomain         string   `env:"PROJECTAUTH_COOKIE_DOMAIN"`
	CookiePath           string   `env:"PROJECTAUTH_COOKIE_PATH"              envDefault:"/"`
	CookieSecure         bool     `env:"PROJECTAUTH_COOKIE_SECURE"            envDefault:"true"`
	FrontendBaseURL      string   `env:"PROJECTAUTH_FRONTEND_BASE_URL"`
	ResetPath            string   `env:"PROJECTAUTH_RESET_PATH"               envDefault:"/reset-password"`
	RecoveryTTLSeconds   int      `env:"PROJECTAUTH_RECOVERY_TTL_SECONDS"     envDefault:"600"`
	RevokeSessionOnReset bool     `env:"PROJECTAUTH_REVOKE_SESSION_ON_RESET"  envDefault:"true"`
	DefaultRole          string   `env:"PROJECTAUTH_DEFAULT_ROLE"             envDefault:"user"`
	DefaultAvatars       []string `env:"PROJECTAUTH_DEFAULT_AVATARS"          envSeparator:","`
	AuditEnabled         bool     `env:"PROJECTAUTH_AUDIT_ENABLED"`
	GoogleClientID       string   `env:"PROJECTAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string   `env:"PROJECTAUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL    string   `env:"PROJECTAUTH_GOOGLE_REDIRECT_URL"`
	GitHubClientID       string   `env:"PROJECTAUTH_GITHUB_CLIENT_ID"`
	GitHubClientSecret   string   `env:"PROJECTAUTH_GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL    string   `env:"PROJECTAUTH_GITHUB_REDIRECT_URL"`
}

// LoadConfigFromEnv builds a validated Config from PROJECTAUTH_* environment variables,
// starting from DefaultConfig.
func LoadConfigFromEnv() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var raw configEnv
	if err := env.ParseWithOptions(&raw, opts); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.JWT.Secret = raw.JWTSecret
	cfg.JWT.Issuer = raw.JWTIssuer
	cfg.JWT.AccessTTL = seconds(raw.AccessTTLSeconds)
	cfg.JWT.RefreshTTL = seconds(raw.RefreshTTLSeconds)
	cfg.Session.RedisPrefix = raw.RedisPrefix
	cfg.Cookie = CookieConfig{
		Name:   raw.CookieName,
		Domain: raw.CookieDomain,
		Path:   raw.CookiePath,
		Secure: raw.CookieSecure,
	}
	cfg.PasswordReset.FrontendBaseURL = raw.FrontendBaseURL
	cfg.PasswordReset.ResetPath = raw.ResetPath
	cfg.PasswordReset.TokenTTL = seconds(raw.RecoveryTTLSeconds)
	cfg.PasswordReset.RevokeSessionOnReset = raw.RevokeSessionOnReset
	cfg.Account.DefaultRole = raw.DefaultRole
	cfg.Account.DefaultAvatars = raw.DefaultAvatars
	cfg.Audit.Enabled = raw.AuditEnabled
	cfg.OAuth.Google = OAuthProviderConfig{
		ClientID:     raw.GoogleClientID,
		ClientSecret: raw.GoogleClientSecret,
		RedirectURL:  raw.GoogleRedirectURL,
	}
	cfg.OAuth.GitHub = OAuthProviderConfig{
		ClientID:     raw.GitHubClientID,
		ClientSecret: raw.GitHubClientSecret,
		RedirectURL:  raw.GitHubRedirectURL,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
