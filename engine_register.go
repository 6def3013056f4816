package projectauth

import (
	"context"
	"time"

	"github.com/MrEthical07/projectauth/identity"
	internalflows "github.com/MrEthical07/projectauth/internal/flows"
)

// Register describes the register operation and its observable behavior.
//
// Register creates a local password account and signs it in. It fails with
// ErrDuplicateAccount when the username or email is taken and ErrInvalidRequest when a
// required field is missing or the password fails the length policy.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	started := time.Now()
	pair, err := e.register(ctx, req)
	e.observe(opRegister, started, err)
	return pair, err
}

func (e *Engine) register(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	result := e.flows.Register(ctx, identity.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Avatar:   req.Avatar,
	})

	var err error
	switch result.Failure {
	case internalflows.RegisterFailureNone:
	case internalflows.RegisterFailureInvalidInput:
		err = invalidRequest(result.Err)
	case internalflows.RegisterFailureDuplicate:
		err = ErrDuplicateAccount
	default:
		err = backendError(result.Err)
	}

	if err != nil {
		e.emitAudit(ctx, auditRecord{
			eventType: AuditEventRegisterFailure,
			username:  req.Username,
			err:       err,
		})
		return nil, err
	}

	e.emitAudit(ctx, auditRecord{
		eventType: AuditEventRegisterSuccess,
		success:   true,
		username:  result.Account.Username,
		sessionID: result.Tokens.SessionID,
	})
	return e.tokenPair(result.Account, result.Tokens), nil
}
