package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/projectauth/jwt"
)

type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureExpired
	LogoutFailureInvalid
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Verify func(string) (*jwt.Claims, error)
	Revoke func(ctx context.Context, username string)
}

type LogoutResult struct {
	Failure  LogoutFailureKind
	Err      error
	Username string
}

// RunLogout verifies accessToken and revokes the active session of its subject, whichever
// session that currently is.
func RunLogout(ctx context.Context, accessToken string, deps LogoutDeps) LogoutResult {
	claims, err := deps.Verify(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return LogoutResult{Failure: LogoutFailureExpired, Err: err}
		}
		return LogoutResult{Failure: LogoutFailureInvalid, Err: err}
	}

	deps.Revoke(ctx, claims.Subject)
	return LogoutResult{Username: claims.Subject}
}
