package projectauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/projectauth/identity"
	"github.com/MrEthical07/projectauth/internal/audit"
	internalflows "github.com/MrEthical07/projectauth/internal/flows"
	"github.com/MrEthical07/projectauth/internal/stores"
	"github.com/MrEthical07/projectauth/jwt"
	"github.com/MrEthical07/projectauth/password"
	"github.com/MrEthical07/projectauth/provider"
	"github.com/MrEthical07/projectauth/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ClaimsFunc returns extra claims embedded into the access token of account. Registered
// and profile claims always win over the returned keys.
type ClaimsFunc func(account *Account) map[string]any

// Builder defines a public type used by projectauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	db     *gorm.DB

	sessions   SessionRegistry
	accounts   identity.Store
	providers  map[provider.ID]provider.ProfileResolver
	httpClient *http.Client

	notifier  RecoveryNotifier
	claims    ClaimsFunc
	logger    logrus.FieldLogger
	auditSink AuditSink
	metrics   prometheus.Registerer
	now       func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config:    DefaultConfig(),
		providers: make(map[provider.ID]provider.ProfileResolver),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig stores a deep copy of cfg; Build validates it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis sets the client backing the default session registry.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionRegistry replaces the Redis-backed registry entirely.
func (b *Builder) WithSessionRegistry(registry SessionRegistry) *Builder {
	b.sessions = registry
	return b
}

// WithDatabase describes the withdatabase operation and its observable behavior.
//
// WithDatabase sets the gorm handle used for accounts and recovery tokens. The schema must
// exist, see AutoMigrate.
func (b *Builder) WithDatabase(db *gorm.DB) *Builder {
	b.db = db
	return b
}

// WithAccountStore replaces the gorm account store. Recovery tokens still use the database.
func (b *Builder) WithAccountStore(store identity.Store) *Builder {
	b.accounts = store
	return b
}

// WithFederatedProvider registers resolver for id, taking precedence over a client built
// from Config.OAuth.
func (b *Builder) WithFederatedProvider(id provider.ID, resolver provider.ProfileResolver) *Builder {
	b.providers[id] = resolver
	return b
}

// WithHTTPClient sets the client used for OAuth calls of providers built from Config.OAuth.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithNotifier describes the withnotifier operation and its observable behavior.
//
// WithNotifier sets the collaborator delivering recovery messages. Without one
// RequestPasswordRecovery fails with ErrNotificationFailed.
func (b *Builder) WithNotifier(notifier RecoveryNotifier) *Builder {
	b.notifier = notifier
	return b
}

// WithClaims adds caller-defined claims to every access token.
func (b *Builder) WithClaims(fn ClaimsFunc) *Builder {
	b.claims = fn
	return b
}

func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink enables the async audit dispatcher with sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsRegisterer registers the Engine's Prometheus collectors on reg.
func (b *Builder) WithMetricsRegisterer(reg prometheus.Registerer) *Builder {
	b.metrics = reg
	return b
}

// WithClock overrides time.Now for token issuance, verification and recovery expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation or dependency wiring fails.
// A Builder can be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.db == nil {
		return nil, errors.New("database required")
	}

	logger := b.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- SESSION REGISTRY --------
	sessions := b.sessions
	if sessions == nil {
		if b.redis == nil {
			return nil, errors.New("redis client required")
		}
		sessions = session.NewRegistry(b.redis, cfg.Session.RedisPrefix, cfg.JWT.RefreshTTL, logger)
	}

	// -------- TOKENS --------
	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	// -------- ACCOUNTS --------
	hasher, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MinPasswordBytes: cfg.Password.MinLength,
		MaxPasswordBytes: cfg.Password.MaxLength,
	})
	if err != nil {
		return nil, err
	}

	accounts := b.accounts
	if accounts == nil {
		accounts = identity.NewGormStore(b.db)
	}
	resolver := identity.NewResolver(accounts, hasher, identity.Options{
		DefaultRole:    cfg.Account.DefaultRole,
		DefaultAvatars: cfg.Account.DefaultAvatars,
	})

	// -------- FEDERATED PROVIDERS --------
	providers, err := b.buildProviders(cfg.OAuth)
	if err != nil {
		return nil, err
	}

	// -------- OBSERVABILITY --------
	var metrics *Metrics
	if b.metrics != nil {
		if metrics, err = NewMetrics(b.metrics); err != nil {
			return nil, err
		}
	}

	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = audit.NewLogrusSink(logger)
		}
		dispatcher = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink)
	}

	notifier := b.notifier
	if notifier == nil {
		logger.Warn("projectauth: no recovery notifier configured")
		notifier = RecoveryNotifierFunc(func(context.Context, RecoveryMessage) error {
			return errors.New("no recovery notifier configured")
		})
	} else if strings.TrimSpace(cfg.PasswordReset.FrontendBaseURL) == "" {
		logger.Warn("projectauth: PasswordReset.FrontendBaseURL is empty, recovery links will be relative")
	}

	e := &Engine{
		config:    cfg,
		jwt:       jwtManager,
		sessions:  sessions,
		resolver:  resolver,
		recovery:  stores.NewRecoveryStore(b.db, cfg.PasswordReset.TokenTTL, now),
		providers: providers,
		notifier:  notifier,
		claims:    b.claims,
		logger:    logger,
		audit:     dispatcher,
		metrics:   metrics,
		now:       now,
	}
	e.flows = internalflows.New(e.flowDeps())

	b.built = true
	return e, nil
}

func (b *Builder) buildProviders(cfg OAuthConfig) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	configured := []struct {
		id  provider.ID
		cfg OAuthProviderConfig
	}{
		{provider.Google, cfg.Google},
		{provider.GitHub, cfg.GitHub},
	}
	for _, p := range configured {
		if !p.cfg.Enabled() {
			continue
		}
		if _, overridden := b.providers[p.id]; overridden {
			continue
		}

		eps, err := provider.DefaultEndpoints(p.id)
		if err != nil {
			return nil, err
		}
		overrideEndpoint(&eps.AuthURL, p.cfg.AuthURL)
		overrideEndpoint(&eps.TokenURL, p.cfg.TokenURL)
		overrideEndpoint(&eps.UserInfoURL, p.cfg.UserInfoURL)
		overrideEndpoint(&eps.EmailsURL, p.cfg.EmailsURL)

		client, err := provider.NewClient(provider.ClientConfig{
			Provider:     p.id,
			ClientID:     p.cfg.ClientID,
			ClientSecret: p.cfg.ClientSecret,
			RedirectURL:  p.cfg.RedirectURL,
			Endpoints:    eps,
			HTTPClient:   b.httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("oauth %s: %w", p.id, err)
		}
		if err := registry.Register(p.id, client); err != nil {
			return nil, err
		}
	}

	for id, resolver := range b.providers {
		if err := registry.Register(id, resolver); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func overrideEndpoint(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// AutoMigrate creates or updates the account and recovery-token tables on db.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database required")
	}
	if err := identity.NewGormStore(db).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	if err := stores.NewRecoveryStore(db, 0, nil).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate recovery tokens: %w", err)
	}
	return nil
}
