package storage

import (
	"crypto/rand"
	"fmt"
)

const (
	CategoryIDLength   = 10
	categoryIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateID returns a random token of the given length drawn uniformly from
// [a-z0-9]. Uniqueness is left to the primary key.
func GenerateID(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	// Largest multiple of the alphabet size below 256; bytes above it are
	// rejected to keep the draw uniform.
	const limit = 256 - 256%len(categoryIDAlphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, categoryIDAlphabet[int(b)%len(categoryIDAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
