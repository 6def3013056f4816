package projectauth

import (
	"context"
	"time"

	"github.com/MrEthical07/projectauth/identity"
	"github.com/MrEthical07/projectauth/internal/audit"
)

// Account is the persisted account model.
type Account = identity.Account

// TokenPair is the result of every operation that signs an account in.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// RefreshExpiresIn is the refresh-token lifetime, used for the cookie Max-Age.
	RefreshExpiresIn time.Duration
	Account          *Account
}

// RegisterRequest carries the attributes of a new local account. Avatar is optional; a
// default is derived from the username when empty.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	FullName string
	Avatar   string
}

// AuthenticatedPrincipal is the verified identity behind an access token.
type AuthenticatedPrincipal struct {
	Username  string
	FullName  string
	Email     string
	Avatar    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Claims holds the raw claim-set extras beyond the standard and profile claims.
	Claims map[string]any
}

// RecoveryMessage is handed to the RecoveryNotifier for delivery to the account owner.
type RecoveryMessage struct {
	Account   *Account
	Token     string
	URL       string
	ExpiresAt time.Time
}

// RecoveryNotifier delivers password-recovery messages (email, SMS, ...). Delivery is
// outside this package.
type RecoveryNotifier interface {
	SendRecovery(ctx context.Context, msg RecoveryMessage) error
}

// RecoveryNotifierFunc adapts a function to RecoveryNotifier.
type RecoveryNotifierFunc func(ctx context.Context, msg RecoveryMessage) error

func (f RecoveryNotifierFunc) SendRecovery(ctx context.Context, msg RecoveryMessage) error {
	return f(ctx, msg)
}

// SessionRegistry tracks the single active refresh session per account.
// session.Registry implements it over Redis.
type SessionRegistry interface {
	SetActive(ctx context.Context, username, sessionID string)
	IsActive(ctx context.Context, username, sessionID string) bool
	Revoke(ctx context.Context, username string)
}

// AuditEvent is one audit record, see the AuditEvent* type constants.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Engine's async dispatcher.
type AuditSink = audit.Sink
