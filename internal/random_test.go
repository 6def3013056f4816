package internal

import (
	"strings"
	"testing"
)

func TestNewSessionIDIsNineDigits(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		sid, err := NewSessionID()
		if err != nil {
			t.Fatalf("NewSessionID: %v", err)
		}
		if len(sid) != SessionIDDigits {
			t.Fatalf("expected %d digits, got %q", SessionIDDigits, sid)
		}
		for _, c := range sid {
			if c < '0' || c > '9' {
				t.Fatalf("non-digit in session id %q", sid)
			}
		}
		seen[sid] = struct{}{}
	}
	if len(seen) < 190 {
		t.Fatalf("session ids collide too often: %d unique of 200", len(seen))
	}
}

func TestNewRecoveryTokenShape(t *testing.T) {
	token, err := NewRecoveryToken()
	if err != nil {
		t.Fatalf("NewRecoveryToken: %v", err)
	}
	if len(token) != RecoveryTokenLength {
		t.Fatalf("expected %d chars, got %q", RecoveryTokenLength, token)
	}
	for _, c := range token {
		if !strings.ContainsRune(recoveryAlphabet, c) {
			t.Fatalf("unexpected character %q in %q", c, token)
		}
	}
}

func TestRandomDigitsRejectsBadWidth(t *testing.T) {
	if _, err := randomDigits(0); err == nil {
		t.Fatal("expected zero width to fail")
	}
	if _, err := randomDigits(19); err == nil {
		t.Fatal("expected overflowing width to fail")
	}
}
