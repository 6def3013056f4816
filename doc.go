// Package projectauth manages the account and session lifecycle of a web back-end:
// registration, password login, federated (OAuth) login, short-lived access tokens,
// a single rotating refresh session per account, logout, and password recovery.
//
// Engine methods are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Sessions
//
// Every sign-in mints an HS256 access token and a refresh token whose jti is a fresh
// session id. The session registry in Redis keeps one active session id per account, so a
// new login or a refresh overwrites it and every older refresh token stops working. The
// registry fails closed on reads (refresh is refused) and open on writes (logged).
//
// # Architecture boundaries
//
// projectauth is the public surface. It exposes [Engine], [Builder], [Config] and value
// types (TokenPair, AuthenticatedPrincipal, RecoveryMessage). Flow orchestration, recovery
// persistence and audit dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Deliver recovery messages itself. Delivery belongs to the [RecoveryNotifier].
//   - Authorize requests. Roles are stored but never evaluated.
//   - Import any sub-package that re-imports projectauth (no import cycles).
package projectauth
