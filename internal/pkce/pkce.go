// Package pkce implements the client side of RFC 7636 Proof Key for Code Exchange:
// verifier generation over the unreserved character set and S256 challenge derivation.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

const (
	// Alphabet is the RFC 3986 unreserved character set a verifier is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

	// DefaultVerifierLength is the maximum length RFC 7636 allows.
	DefaultVerifierLength = 128

	// MethodS256 is the only challenge method this package produces.
	MethodS256 = "S256"
)

// ErrInvalidLength is returned when a verifier of fewer than one character is requested.
var ErrInvalidLength = errors.New("pkce: verifier length must be at least 1")

// largest multiple of len(Alphabet) that fits in a byte; bytes at or above it are rejected to keep sampling uniform
const sampleLimit = 256 - (256 % len(Alphabet))

var randReader io.Reader = rand.Reader

// Challenge pairs a verifier with its derived challenge.
type Challenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// GenerateVerifier returns length characters drawn independently and uniformly from [Alphabet].
func GenerateVerifier(length int) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+8)

	for len(out) < length {
		if _, err := io.ReadFull(randReader, buf); err != nil {
			return "", fmt.Errorf("pkce: failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= sampleLimit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// DeriveChallenge returns base64url(sha256(verifier)) without padding.
func DeriveChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// New generates a verifier of the given length and derives its challenge.
func New(length int) (*Challenge, error) {
	verifier, err := GenerateVerifier(length)
	if err != nil {
		return nil, err
	}

	return &Challenge{
		Verifier:  verifier,
		Challenge: DeriveChallenge(verifier),
		Method:    MethodS256,
	}, nil
}

// Verify reports whether verifier hashes to challenge, the check an authorization server performs at exchange time.
func Verify(verifier, challenge string) bool {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]) == challenge
}
