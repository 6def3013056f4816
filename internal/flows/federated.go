package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/projectauth/identity"
	"github.com/MrEthical07/projectauth/provider"
)

type FederatedFailureKind int

const (
	FederatedFailureNone FederatedFailureKind = iota
	FederatedFailureProvider
	FederatedFailureLookup
	FederatedFailureRegister
	FederatedFailureIssue
)

type FederatedDeps struct {
	ResolveProfile    func(ctx context.Context, id provider.ID, code string) (provider.Profile, error)
	FindByEmail       func(ctx context.Context, email string) (*identity.Account, error)
	RegisterFederated func(ctx context.Context, in identity.RegisterInput) (*identity.Account, error)
	Session           SessionDeps
}

type FederatedResult struct {
	Failure FederatedFailureKind
	Err     error
	Account *identity.Account
	// Created is true when the login provisioned a new account.
	Created bool
	Tokens  SessionTokens
}

// RunFederatedLogin resolves code into a provider profile and signs in the account owning
// the profile email, provisioning one when none exists. The provider's email assertion is
// trusted without a password check.
func RunFederatedLogin(ctx context.Context, id provider.ID, code string, deps FederatedDeps) FederatedResult {
	profile, err := deps.ResolveProfile(ctx, id, code)
	if err != nil {
		return FederatedResult{Failure: FederatedFailureProvider, Err: err}
	}

	account, err := deps.FindByEmail(ctx, profile.Email)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrAccountNotFound):
		account, err = deps.RegisterFederated(ctx, identity.RegisterInput{
			Username: profile.Username,
			Email:    profile.Email,
			FullName: profile.FullName,
			Avatar:   profile.AvatarURL,
			Provider: string(id),
		})
		if err != nil {
			return FederatedResult{Failure: FederatedFailureRegister, Err: err}
		}
		created = true
	default:
		return FederatedResult{Failure: FederatedFailureLookup, Err: err}
	}

	tokens, err := RunIssueSessionTokens(ctx, account, deps.Session)
	if err != nil {
		return FederatedResult{Failure: FederatedFailureIssue, Err: err, Account: account, Created: created}
	}

	return FederatedResult{Account: account, Created: created, Tokens: tokens}
}
