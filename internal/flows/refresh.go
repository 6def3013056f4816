package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/projectauth/identity"
	"github.com/MrEthical07/projectauth/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureExpired
	RefreshFailureInvalid
	RefreshFailureRevoked
	RefreshFailureAccountNotFound
	RefreshFailureLookup
	RefreshFailureIssue
)

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Verify      func(string) (*jwt.Claims, error)
	IsActive    func(ctx context.Context, username, sessionID string) bool
	LoadAccount func(ctx context.Context, username string) (*identity.Account, error)
	Session     SessionDeps
}

// RefreshResult carries either the rotated token pair or failure metadata.
type RefreshResult struct {
	Failure   RefreshFailureKind
	Err       error
	Username  string
	SessionID string
	Account   *identity.Account
	Tokens    SessionTokens
}

// RunRefresh exchanges the account's active refresh token for a new pair. The presented
// token stops being active as soon as the new session id is recorded.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return RefreshResult{Failure: RefreshFailureExpired, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureInvalid, Err: err}
	}

	username := claims.Subject
	sessionID := claims.SessionID()
	if !deps.IsActive(ctx, username, sessionID) {
		return RefreshResult{
			Failure:   RefreshFailureRevoked,
			Username:  username,
			SessionID: sessionID,
		}
	}

	account, err := deps.LoadAccount(ctx, username)
	if err != nil {
		failure := RefreshFailureLookup
		if errors.Is(err, identity.ErrAccountNotFound) {
			failure = RefreshFailureAccountNotFound
		}
		return RefreshResult{
			Failure:   failure,
			Err:       err,
			Username:  username,
			SessionID: sessionID,
		}
	}

	tokens, err := RunIssueSessionTokens(ctx, account, deps.Session)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureIssue,
			Err:       err,
			Username:  username,
			SessionID: sessionID,
			Account:   account,
		}
	}

	return RefreshResult{
		Username:  username,
		SessionID: tokens.SessionID,
		Account:   account,
		Tokens:    tokens,
	}
}
