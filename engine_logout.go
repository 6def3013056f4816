package projectauth

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/projectauth/internal/flows"
)

// Logout describes the logout operation and its observable behavior.
//
// Logout verifies accessToken and revokes whichever session is currently active for its
// subject. Access tokens already issued stay valid until they expire.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	started := time.Now()
	err := e.logout(ctx, accessToken)
	e.observe(opLogout, started, err)
	return err
}

func (e *Engine) logout(ctx context.Context, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	result := e.flows.Logout(ctx, accessToken)

	var err error
	switch result.Failure {
	case internalflows.LogoutFailureNone:
	case internalflows.LogoutFailureExpired:
		err = ErrTokenExpired
	default:
		err = ErrTokenInvalidSignature
	}

	e.emitAudit(ctx, auditRecord{
		eventType: AuditEventLogout,
		success:   err == nil,
		username:  result.Username,
		err:       err,
	})
	return err
}
