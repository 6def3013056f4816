package flows

import (
	"context"

	"github.com/MrEthical07/projectauth/identity"
	"github.com/MrEthical07/projectauth/provider"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Refresh.Verify != nil
}

func (s Service) IssueSessionTokens(ctx context.Context, account *identity.Account) (SessionTokens, error) {
	return RunIssueSessionTokens(ctx, account, s.deps.Session)
}

func (s Service) Register(ctx context.Context, in identity.RegisterInput) RegisterResult {
	return RunRegister(ctx, in, s.deps.Register)
}

func (s Service) Login(ctx context.Context, login, password string) LoginResult {
	return RunLogin(ctx, login, password, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, accessToken string) LogoutResult {
	return RunLogout(ctx, accessToken, s.deps.Logout)
}

func (s Service) RequestPasswordRecovery(ctx context.Context, login string) RecoveryResult {
	return RunRequestPasswordRecovery(ctx, login, s.deps.Recovery)
}

func (s Service) ResetPassword(ctx context.Context, token, newPassword string) RecoveryResult {
	return RunResetPassword(ctx, token, newPassword, s.deps.Recovery)
}

func (s Service) FederatedLogin(ctx context.Context, id provider.ID, code string) FederatedResult {
	return RunFederatedLogin(ctx, id, code, s.deps.Federated)
}
