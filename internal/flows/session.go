package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/projectauth/identity"
)

// SessionDeps mints a token pair and records the new session as the account's only
// active one.
type SessionDeps struct {
	IssueAccess  func(*identity.Account) (string, error)
	IssueRefresh func(username string) (token string, sessionID string, err error)
	SetActive    func(ctx context.Context, username, sessionID string)
}

// SessionTokens is a freshly minted pair plus the session id carried by the refresh token.
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
}

// RunIssueSessionTokens mints access and refresh tokens for account and overwrites its
// active session. Registry writes are best effort and never fail issuance.
func RunIssueSessionTokens(ctx context.Context, account *identity.Account, deps SessionDeps) (SessionTokens, error) {
	if account == nil || account.Username == "" {
		return SessionTokens{}, errors.New("cannot issue tokens without an account")
	}

	access, err := deps.IssueAccess(account)
	if err != nil {
		return SessionTokens{}, err
	}

	refresh, sessionID, err := deps.IssueRefresh(account.Username)
	if err != nil {
		return SessionTokens{}, err
	}

	deps.SetActive(ctx, account.Username, sessionID)

	return SessionTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    sessionID,
	}, nil
}
