// Package jwt issues and verifies the compact HS256 tokens used for access and refresh
// credentials.
//
// Verification proves only that a token was signed with the configured secret and has not
// expired. Whether a refresh token is the currently active one for its account is decided
// by the session registry, one layer up.
package jwt
