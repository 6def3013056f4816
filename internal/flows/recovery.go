package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/projectauth/identity"
	"github.com/MrEthical07/projectauth/internal/stores"
	"github.com/google/uuid"
)

type RecoveryFailureKind int

const (
	RecoveryFailureNone RecoveryFailureKind = iota
	RecoveryFailureAccountNotFound
	RecoveryFailureLookup
	RecoveryFailureIssue
	RecoveryFailureNotify
	RecoveryFailureTokenNotFound
	RecoveryFailureTokenExpired
	RecoveryFailureConsume
	RecoveryFailureInvalidPassword
	RecoveryFailureSetPassword
)

// RecoveryNotice is what the delivery collaborator receives.
type RecoveryNotice struct {
	Account   *identity.Account
	Token     string
	URL       string
	ExpiresAt time.Time
}

// RecoveryDeps captures password recovery dependencies.
type RecoveryDeps struct {
	ResolveByLogin func(ctx context.Context, login string) (*identity.Account, error)
	FindByID       func(ctx context.Context, id uuid.UUID) (*identity.Account, error)
	IssueToken     func(ctx context.Context, accountID uuid.UUID) (*stores.RecoveryToken, error)
	ConsumeToken   func(ctx context.Context, token string) (*stores.RecoveryToken, error)
	BuildURL       func(token string) string
	Notify         func(ctx context.Context, notice RecoveryNotice) error
	SetPassword    func(ctx context.Context, account *identity.Account, newPassword string) error
	// Revoke is called after a successful reset when set.
	Revoke func(ctx context.Context, username string)
}

type RecoveryResult struct {
	Failure RecoveryFailureKind
	Err     error
	Account *identity.Account
}

// RunRequestPasswordRecovery issues a recovery token for login and hands it to Notify.
func RunRequestPasswordRecovery(ctx context.Context, login string, deps RecoveryDeps) RecoveryResult {
	account, err := deps.ResolveByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return RecoveryResult{Failure: RecoveryFailureAccountNotFound, Err: err}
		}
		return RecoveryResult{Failure: RecoveryFailureLookup, Err: err}
	}

	record, err := deps.IssueToken(ctx, account.ID)
	if err != nil {
		return RecoveryResult{Failure: RecoveryFailureIssue, Err: err, Account: account}
	}

	notice := RecoveryNotice{
		Account:   account,
		Token:     record.Token,
		URL:       deps.BuildURL(record.Token),
		ExpiresAt: record.ExpiresAt,
	}
	if err := deps.Notify(ctx, notice); err != nil {
		return RecoveryResult{Failure: RecoveryFailureNotify, Err: err, Account: account}
	}

	return RecoveryResult{Account: account}
}

// RunResetPassword redeems token and replaces the account password.
func RunResetPassword(ctx context.Context, token, newPassword string, deps RecoveryDeps) RecoveryResult {
	record, err := deps.ConsumeToken(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrRecoveryNotFound):
			return RecoveryResult{Failure: RecoveryFailureTokenNotFound, Err: err}
		case errors.Is(err, stores.ErrRecoveryExpired):
			return RecoveryResult{Failure: RecoveryFailureTokenExpired, Err: err}
		default:
			return RecoveryResult{Failure: RecoveryFailureConsume, Err: err}
		}
	}

	account, err := deps.FindByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return RecoveryResult{Failure: RecoveryFailureAccountNotFound, Err: err}
		}
		return RecoveryResult{Failure: RecoveryFailureLookup, Err: err}
	}

	if err := deps.SetPassword(ctx, account, newPassword); err != nil {
		failure := RecoveryFailureSetPassword
		if errors.Is(err, identity.ErrInvalidInput) {
			failure = RecoveryFailureInvalidPassword
		}
		return RecoveryResult{Failure: failure, Err: err, Account: account}
	}

	if deps.Revoke != nil {
		deps.Revoke(ctx, account.Username)
	}

	return RecoveryResult{Account: account}
}
