package projectauth

import "errors"

var (
	// ErrInvalidCredentials is returned when a password does not match the account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is returned when no account matches a login, username or email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateAccount is returned when registration collides with an existing username or email.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrTokenExpired is returned for tokens whose exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalidSignature is returned for malformed or tampered tokens.
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	// ErrTokenRevoked is returned for a refresh token that is no longer the account's active session.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRecoveryTokenNotFound is returned for unknown or already consumed recovery tokens.
	ErrRecoveryTokenNotFound = errors.New("recovery token not found")
	// ErrRecoveryTokenExpired is returned for recovery tokens presented after their expiry.
	ErrRecoveryTokenExpired = errors.New("recovery token expired")
	// ErrOAuthProvider is returned when a federated login cannot obtain a usable provider profile.
	ErrOAuthProvider = errors.New("oauth provider failure")
	// ErrInvalidRequest is returned when required input is missing or fails policy.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrBackendUnavailable wraps database, Redis or signing failures.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotificationFailed is returned when the recovery notifier rejects a message.
	ErrNotificationFailed = errors.New("recovery notification failed")
	// ErrEngineNotReady is returned by methods called on an Engine not produced by Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrDuplicateAccount, "duplicate_account"},
	{ErrTokenExpired, "token_expired"},
	{ErrTokenInvalidSignature, "token_invalid"},
	{ErrTokenRevoked, "token_revoked"},
	{ErrRecoveryTokenNotFound, "recovery_token_not_found"},
	{ErrRecoveryTokenExpired, "recovery_token_expired"},
	{ErrOAuthProvider, "oauth_provider"},
	{ErrInvalidRequest, "invalid_request"},
	{ErrBackendUnavailable, "backend_unavailable"},
	{ErrNotificationFailed, "notification_failed"},
	{ErrEngineNotReady, "engine_not_ready"},
}

// ErrorCode returns a stable machine-readable code for err, "" for nil and "internal" for
// errors outside this package's sentinel set.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
