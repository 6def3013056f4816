// Package stores provides the gorm-backed store for short-lived password-recovery tokens.
//
// # Design
//
// Each token is a row keyed by the token string with an absolute expiry. Consume reads the
// row, rejects it when expired, and then deletes it; the delete's affected-row count decides
// the winner when two requests redeem the same token. Expired rows are never swept here.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for recovery records. It does NOT
// deliver tokens, hash passwords, or make authentication decisions; those responsibilities
// belong to the Engine.
//
// # What this package must NOT do
//
//   - Import projectauth or identity.
//   - Log token values.
package stores
