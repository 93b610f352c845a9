package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"
)

// SerialSuffixLength is the length of the random component of a serial key.
const SerialSuffixLength = 6

// generateSecureSuffix generates a secure random string of the specified length.
// It returns a base32 encoded string (without padding) truncated to the desired length.
func generateSecureSuffix(length int) (string, error) {
	numBytes := (length*5 + 7) / 8
	randomBytes := make([]byte, numBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	suffix := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	if len(suffix) > length {
		suffix = suffix[:length]
	}
	return suffix, nil
}

// GenerateSerialKey builds a human-shareable booking serial of the form
// BK-20240101-AB3DQ7. The date prefix is taken from the booking start time,
// the suffix is cryptographically random. Uniqueness is enforced by the
// caller against the booking store; collisions are rare but possible.
func GenerateSerialKey(startTime time.Time) (string, error) {
	suffix, err := generateSecureSuffix(SerialSuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BK-%s-%s", startTime.UTC().Format("20060102"), suffix), nil
}

// GenerateVerificationCode generates a secure short code for the two-phase
// cancellation flow.
func GenerateVerificationCode(length int) (string, error) {
	return generateSecureSuffix(length)
}
