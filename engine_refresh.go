package projectauth

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/projectauth/internal/flows"
)

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh exchanges the account's active refresh token for a new pair and reloads the
// account so profile claims are current. A token that is not the active session fails with
// ErrTokenRevoked, which includes every token already rotated and every token whose
// registry record cannot be read.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	started := time.Now()
	pair, err := e.refresh(ctx, refreshToken)
	e.observe(opRefresh, started, err)
	return pair, err
}

func (e *Engine) refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	result := e.flows.Refresh(ctx, refreshToken)

	var err error
	eventType := AuditEventRefreshFailure
	switch result.Failure {
	case internalflows.RefreshFailureNone:
	case internalflows.RefreshFailureExpired:
		err = ErrTokenExpired
	case internalflows.RefreshFailureInvalid:
		err = ErrTokenInvalidSignature
	case internalflows.RefreshFailureRevoked:
		err = ErrTokenRevoked
		eventType = AuditEventRefreshRevoked
	case internalflows.RefreshFailureAccountNotFound:
		err = ErrAccountNotFound
	default:
		err = backendError(result.Err)
	}

	if err != nil {
		e.emitAudit(ctx, auditRecord{
			eventType: eventType,
			username:  result.Username,
			sessionID: result.SessionID,
			err:       err,
		})
		return nil, err
	}

	e.emitAudit(ctx, auditRecord{
		eventType: AuditEventRefreshSuccess,
		success:   true,
		username:  result.Username,
		sessionID: result.SessionID,
	})
	return e.tokenPair(result.Account, result.Tokens), nil
}
