package projectauth

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/projectauth/internal/flows"
)

// RequestPasswordRecovery describes the requestpasswordrecovery operation and its observable behavior.
//
// RequestPasswordRecovery issues a single-use recovery token for the account named by login
// and hands it to the configured RecoveryNotifier. It fails with ErrAccountNotFound for an
// unknown login and ErrNotificationFailed when delivery fails; the token stays redeemable
// until it expires in either case.
func (e *Engine) RequestPasswordRecovery(ctx context.Context, login string) error {
	started := time.Now()
	err := e.requestPasswordRecovery(ctx, login)
	e.observe(opRecoveryRequest, started, err)
	return err
}

func (e *Engine) requestPasswordRecovery(ctx context.Context, login string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	result := e.flows.RequestPasswordRecovery(ctx, login)
	err := mapRecoveryFailure(result)

	username := login
	if result.Account != nil {
		username = result.Account.Username
	}
	if err != nil {
		if result.Failure == internalflows.RecoveryFailureNotify {
			e.logger.WithField("username", username).WithError(result.Err).
				Warn("projectauth: recovery notification failed")
		}
		e.emitAudit(ctx, auditRecord{
			eventType: AuditEventPasswordRecoveryFailed,
			username:  username,
			err:       err,
		})
		return err
	}

	e.emitAudit(ctx, auditRecord{
		eventType: AuditEventPasswordRecoveryIssued,
		success:   true,
		username:  username,
	})
	return nil
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword redeems token and replaces the account password. A token is accepted once:
// later calls fail with ErrRecoveryTokenNotFound, calls at or after its expiry with
// ErrRecoveryTokenExpired. The active session is revoked when
// PasswordReset.RevokeSessionOnReset is set.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	started := time.Now()
	err := e.resetPassword(ctx, token, newPassword)
	e.observe(opPasswordReset, started, err)
	return err
}

func (e *Engine) resetPassword(ctx context.Context, token, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	result := e.flows.ResetPassword(ctx, token, newPassword)
	err := mapRecoveryFailure(result)

	var username string
	if result.Account != nil {
		username = result.Account.Username
	}
	if err != nil {
		e.emitAudit(ctx, auditRecord{
			eventType: AuditEventPasswordResetFailure,
			username:  username,
			err:       err,
		})
		return err
	}

	e.emitAudit(ctx, auditRecord{
		eventType: AuditEventPasswordResetSuccess,
		success:   true,
		username:  username,
	})
	return nil
}

func mapRecoveryFailure(result internalflows.RecoveryResult) error {
	switch result.Failure {
	case internalflows.RecoveryFailureNone:
		return nil
	case internalflows.RecoveryFailureAccountNotFound:
		return ErrAccountNotFound
	case internalflows.RecoveryFailureNotify:
		return ErrNotificationFailed
	case internalflows.RecoveryFailureTokenNotFound:
		return ErrRecoveryTokenNotFound
	case internalflows.RecoveryFailureTokenExpired:
		return ErrRecoveryTokenExpired
	case internalflows.RecoveryFailureInvalidPassword:
		return invalidRequest(result.Err)
	default:
		return backendError(result.Err)
	}
}
