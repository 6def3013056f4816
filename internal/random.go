package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// SessionIDDigits is the fixed width of refresh-token session ids.
	SessionIDDigits = 9
	// RecoveryTokenLength is the fixed length of password-recovery tokens.
	RecoveryTokenLength = 15

	recoveryAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewSessionID returns a zero-padded random decimal string of SessionIDDigits digits.
func NewSessionID() (string, error) {
	return randomDigits(SessionIDDigits)
}

// NewRecoveryToken returns a random alphanumeric string of RecoveryTokenLength characters.
func NewRecoveryToken() (string, error) {
	return randomString(RecoveryTokenLength, recoveryAlphabet)
}

func randomDigits(digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", errors.New("invalid digit count")
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

func randomString(length int, alphabet string) (string, error) {
	if length <= 0 || alphabet == "" {
		return "", errors.New("invalid random string parameters")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	out := b.String()
	if len(out) != length {
		return "", fmt.Errorf("invalid random string length")
	}
	return out, nil
}
