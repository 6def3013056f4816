package projectauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/projectauth/identity"
	"github.com/MrEthical07/projectauth/internal/audit"
	internalflows "github.com/MrEthical07/projectauth/internal/flows"
	"github.com/MrEthical07/projectauth/internal/stores"
	"github.com/MrEthical07/projectauth/jwt"
	"github.com/MrEthical07/projectauth/provider"
	"github.com/sirupsen/logrus"
)

// Engine defines a public type used by projectauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config    Config
	jwt       *jwt.Manager
	sessions  SessionRegistry
	resolver  *identity.Resolver
	recovery  *stores.RecoveryStore
	providers *provider.Registry
	notifier  RecoveryNotifier
	claims    ClaimsFunc
	logger    logrus.FieldLogger
	audit     *audit.Dispatcher
	metrics   *Metrics
	flows     internalflows.Service
	now       func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close drains pending audit events. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditStats reports delivered and dropped audit events.
func (e *Engine) AuditStats() audit.Stats {
	if e == nil || e.audit == nil {
		return audit.Stats{}
	}
	return e.audit.Stats()
}

// Metrics returns the Engine's collectors, nil unless Builder.WithMetricsRegisterer was used.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// Config returns a copy of the validated configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// FederatedProviders lists the configured provider ids.
func (e *Engine) FederatedProviders() []provider.ID {
	if !e.ready() {
		return nil
	}
	return e.providers.Configured()
}

// AuthCodeURL returns the consent page URL of providerID carrying state.
func (e *Engine) AuthCodeURL(providerID, state string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	id, err := provider.ParseID(providerID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOAuthProvider, err)
	}
	u, err := e.providers.AuthCodeURL(id, state)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOAuthProvider, err)
	}
	return u, nil
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate verifies accessToken and returns the principal it names. It is pure token
// verification: a revoked session does not invalidate access tokens minted for it before
// they expire. Refresh tokens are rejected with ErrTokenInvalidSignature.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (AuthenticatedPrincipal, error) {
	started := time.Now()
	principal, err := e.authenticate(accessToken)
	e.observe(opAuthenticate, started, err)
	return principal, err
}

func (e *Engine) authenticate(accessToken string) (AuthenticatedPrincipal, error) {
	if !e.ready() {
		return AuthenticatedPrincipal{}, ErrEngineNotReady
	}

	claims, err := e.verifyAccess(accessToken)
	if err != nil {
		return AuthenticatedPrincipal{}, mapTokenError(err)
	}
	extra, err := e.jwt.ExtractExtra(accessToken)
	if err != nil {
		return AuthenticatedPrincipal{}, mapTokenError(err)
	}

	principal := AuthenticatedPrincipal{
		Username: claims.Subject,
		FullName: claims.FullName,
		Email:    claims.Email,
		Avatar:   claims.Avatar,
		Claims:   extra,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// verifyAccess is jwt.Manager.Verify restricted to access tokens.
func (e *Engine) verifyAccess(token string) (*jwt.Claims, error) {
	claims, err := e.jwt.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.SessionID() != "" {
		return nil, fmt.Errorf("%w: refresh token presented as access token", jwt.ErrInvalidSignature)
	}
	return claims, nil
}

func (e *Engine) ready() bool {
	return e != nil && e.jwt != nil && e.flows.Initialized()
}

func (e *Engine) issueAccess(account *identity.Account) (string, error) {
	var extra map[string]any
	if e.claims != nil {
		extra = e.claims(account)
	}
	return e.jwt.IssueAccess(jwt.Subject{
		Username: account.Username,
		FullName: account.FullName,
		Email:    account.Email,
		Avatar:   account.Avatar,
	}, extra)
}

func (e *Engine) tokenPair(account *identity.Account, tokens internalflows.SessionTokens) *TokenPair {
	return &TokenPair{
		AccessToken:      tokens.AccessToken,
		RefreshToken:     tokens.RefreshToken,
		RefreshExpiresIn: e.jwt.RefreshTTL(),
		Account:          account,
	}
}

func (e *Engine) flowDeps() internalflows.Deps {
	sessionDeps := internalflows.SessionDeps{
		IssueAccess: e.issueAccess,
		IssueRefresh: func(username string) (string, string, error) {
			return e.jwt.IssueRefresh(username, nil)
		},
		SetActive: e.sessions.SetActive,
	}

	recoveryDeps := internalflows.RecoveryDeps{
		ResolveByLogin: e.resolver.ResolveByLogin,
		FindByID:       e.resolver.FindByID,
		IssueToken:     e.recovery.Issue,
		ConsumeToken:   e.recovery.Consume,
		BuildURL:       e.config.resetURL,
		Notify: func(ctx context.Context, n internalflows.RecoveryNotice) error {
			return e.notifier.SendRecovery(ctx, RecoveryMessage{
				Account:   n.Account,
				Token:     n.Token,
				URL:       n.URL,
				ExpiresAt: n.ExpiresAt,
			})
		},
		SetPassword: e.resolver.SetPassword,
	}
	if e.config.PasswordReset.RevokeSessionOnReset {
		recoveryDeps.Revoke = e.sessions.Revoke
	}

	return internalflows.Deps{
		Session: sessionDeps,
		Register: internalflows.RegisterDeps{
			RegisterLocal: e.resolver.RegisterLocal,
			Session:       sessionDeps,
		},
		Login: internalflows.LoginDeps{
			ResolveByLogin: e.resolver.ResolveByLogin,
			VerifyPassword: e.resolver.VerifyPassword,
			Session:        sessionDeps,
		},
		Refresh: internalflows.RefreshDeps{
			Verify:      e.jwt.Verify,
			IsActive:    e.sessions.IsActive,
			LoadAccount: e.resolver.FindByUsername,
			Session:     sessionDeps,
		},
		Logout: internalflows.LogoutDeps{
			Verify: e.verifyAccess,
			Revoke: e.sessions.Revoke,
		},
		Recovery: recoveryDeps,
		Federated: internalflows.FederatedDeps{
			ResolveProfile:    e.providers.Resolve,
			FindByEmail:       e.resolver.FindByEmail,
			RegisterFederated: e.resolver.RegisterFederated,
			Session:           sessionDeps,
		},
	}
}

func mapTokenError(err error) error {
	if errors.Is(err, jwt.ErrExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalidSignature
}

// backendError wraps a store, registry or signing failure.
func backendError(err error) error {
	if err == nil {
		return ErrBackendUnavailable
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

func invalidRequest(err error) error {
	if err == nil {
		return ErrInvalidRequest
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}
