// Package internal contains helpers that are private to projectauth, chiefly the
// random session ids and recovery tokens minted from crypto/rand.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every Engine operation
//   - stores: gorm-backed recovery token persistence
//
// # What this package must NOT do
//
//   - Export types that appear in the public projectauth API.
//   - Import the root projectauth package.
package internal
