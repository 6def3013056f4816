// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunRefresh, RunResetPassword, etc.) accepts a typed
// dependency struct of closures and returns a result carrying a failure kind. The root
// package maps failure kinds to its public sentinel errors, audit events and metrics.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the account resolver, token manager, session
// registry and recovery store. They do NOT own any of these resources; ownership stays
// with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import projectauth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency closures.
package flows
