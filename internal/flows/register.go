package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/projectauth/identity"
)

type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureInvalidInput
	RegisterFailureDuplicate
	RegisterFailurePersist
	RegisterFailureIssue
)

type RegisterDeps struct {
	RegisterLocal func(context.Context, identity.RegisterInput) (*identity.Account, error)
	Session       SessionDeps
}

type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
	Account *identity.Account
	Tokens  SessionTokens
}

// RunRegister creates a local account and signs it in.
func RunRegister(ctx context.Context, in identity.RegisterInput, deps RegisterDeps) RegisterResult {
	account, err := deps.RegisterLocal(ctx, in)
	if err != nil {
		failure := RegisterFailurePersist
		switch {
		case errors.Is(err, identity.ErrInvalidInput):
			failure = RegisterFailureInvalidInput
		case errors.Is(err, identity.ErrDuplicateAccount):
			failure = RegisterFailureDuplicate
		}
		return RegisterResult{Failure: failure, Err: err}
	}

	tokens, err := RunIssueSessionTokens(ctx, account, deps.Session)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureIssue, Err: err, Account: account}
	}

	return RegisterResult{Account: account, Tokens: tokens}
}
