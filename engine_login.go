package projectauth

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/projectauth/internal/flows"
)

// Login describes the login operation and its observable behavior.
//
// Login resolves login as a username, then as an email, and checks password. On success
// every earlier session of the account stops being refreshable.
func (e *Engine) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	started := time.Now()
	pair, err := e.login(ctx, login, password)
	e.observe(opLogin, started, err)
	return pair, err
}

func (e *Engine) login(ctx context.Context, login, password string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	result := e.flows.Login(ctx, login, password)

	var err error
	switch result.Failure {
	case internalflows.LoginFailureNone:
	case internalflows.LoginFailureAccountNotFound:
		err = ErrAccountNotFound
	case internalflows.LoginFailureInvalidCredentials:
		err = ErrInvalidCredentials
	default:
		err = backendError(result.Err)
	}

	if err != nil {
		username := login
		if result.Account != nil {
			username = result.Account.Username
		}
		e.emitAudit(ctx, auditRecord{
			eventType: AuditEventLoginFailure,
			username:  username,
			err:       err,
		})
		return nil, err
	}

	e.emitAudit(ctx, auditRecord{
		eventType: AuditEventLoginSuccess,
		success:   true,
		username:  result.Account.Username,
		sessionID: result.Tokens.SessionID,
	})
	return e.tokenPair(result.Account, result.Tokens), nil
}
