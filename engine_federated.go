package projectauth

import (
	"context"
	"strconv"
	"time"

	internalflows "github.com/MrEthical07/projectauth/internal/flows"
	"github.com/MrEthical07/projectauth/provider"
)

// FederatedLogin describes the federatedlogin operation and its observable behavior.
//
// FederatedLogin resolves code with the provider named by providerID and signs in the
// account owning the profile email, provisioning a password-less account when none exists.
// The provider's email assertion is trusted without a password check. Any provider failure,
// including an unknown or unconfigured providerID, is ErrOAuthProvider.
func (e *Engine) FederatedLogin(ctx context.Context, providerID, code string) (*TokenPair, error) {
	started := time.Now()
	pair, err := e.federatedLogin(ctx, providerID, code)
	e.observe(opFederatedLogin, started, err)
	return pair, err
}

func (e *Engine) federatedLogin(ctx context.Context, providerID, code string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	id, err := provider.ParseID(providerID)
	if err != nil {
		err = ErrOAuthProvider
		e.emitAudit(ctx, auditRecord{
			eventType: AuditEventFederatedFailure,
			provider:  providerID,
			err:       err,
		})
		return nil, err
	}

	result := e.flows.FederatedLogin(ctx, id, code)

	switch result.Failure {
	case internalflows.FederatedFailureNone:
	case internalflows.FederatedFailureProvider:
		err = ErrOAuthProvider
		e.logger.WithField("provider", string(id)).WithError(result.Err).
			Warn("projectauth: federated profile resolution failed")
	default:
		err = backendError(result.Err)
	}

	if err != nil {
		var username string
		if result.Account != nil {
			username = result.Account.Username
		}
		e.emitAudit(ctx, auditRecord{
			eventType: AuditEventFederatedFailure,
			username:  username,
			provider:  string(id),
			err:       err,
		})
		return nil, err
	}

	e.emitAudit(ctx, auditRecord{
		eventType: AuditEventFederatedLogin,
		success:   true,
		username:  result.Account.Username,
		sessionID: result.Tokens.SessionID,
		provider:  string(id),
		metadata: map[string]string{
			"created": strconv.FormatBool(result.Created),
		},
	})
	return e.tokenPair(result.Account, result.Tokens), nil
}
