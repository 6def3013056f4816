package projectauth

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidCredentials, "invalid_credentials"},
		{ErrTokenRevoked, "token_revoked"},
		{fmt.Errorf("%w: redis down", ErrBackendUnavailable), "backend_unavailable"},
		{fmt.Errorf("wrapped twice: %w", fmt.Errorf("%w: x", ErrRecoveryTokenExpired)), "recovery_token_expired"},
		{errors.New("boom"), "internal"},
	}
	for _, c := range cases {
		if got := ErrorCode(c.err); got != c.want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool, len(errorCodes))
	for _, ec := range errorCodes {
		if seen[ec.code] {
			t.Fatalf("duplicate code %q", ec.code)
		}
		seen[ec.code] = true
	}
}
