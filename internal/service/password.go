package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	defaultSecretLength = 48
	secretChars         = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateSecret returns a random alphanumeric string of the given length.
// It backs the session signing key when none is configured, which makes
// sessions expire on restart.
func GenerateSecret(length int) (string, error) {
	if length <= 0 {
		length = defaultSecretLength
	}

	secret := make([]byte, length)
	charsLength := big.NewInt(int64(len(secretChars)))

	for i := range secret {
		randomIndex, err := rand.Int(rand.Reader, charsLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		secret[i] = secretChars[randomIndex.Int64()]
	}

	return string(secret), nil
}
