package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/projectauth/identity"
)

type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureAccountNotFound
	LoginFailureInvalidCredentials
	LoginFailureLookup
	LoginFailureIssue
)

type LoginDeps struct {
	ResolveByLogin func(ctx context.Context, login string) (*identity.Account, error)
	VerifyPassword func(account *identity.Account, password string) bool
	Session        SessionDeps
}

type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Account *identity.Account
	Tokens  SessionTokens
}

// RunLogin authenticates login/password and replaces any existing session of the account.
// A blank login names no account and an empty password never matches.
func RunLogin(ctx context.Context, login, password string, deps LoginDeps) LoginResult {
	if strings.TrimSpace(login) == "" {
		return LoginResult{Failure: LoginFailureAccountNotFound, Err: identity.ErrAccountNotFound}
	}

	account, err := deps.ResolveByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return LoginResult{Failure: LoginFailureAccountNotFound, Err: err}
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}

	if password == "" || !deps.VerifyPassword(account, password) {
		return LoginResult{Failure: LoginFailureInvalidCredentials, Account: account}
	}

	tokens, err := RunIssueSessionTokens(ctx, account, deps.Session)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Account: account}
	}

	return LoginResult{Account: account, Tokens: tokens}
}
