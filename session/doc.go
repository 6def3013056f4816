// Package session tracks the single active refresh session of each account in Redis.
//
// # Architecture boundaries
//
// This package owns the [Registry] (Redis operations) only. It does NOT interpret JWT
// tokens or decide which account a token belongs to; those responsibilities belong to the
// Engine.
//
// # What this package must NOT do
//
//   - Import projectauth, jwt, or identity (no upward imports).
//   - Store anything other than the opaque session id.
//   - Surface write failures to callers. A failed write is logged; a failed read reports
//     the session as inactive.
package session
