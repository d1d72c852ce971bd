// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// Header names carrying the shared secrets, one per call direction.
const (
	HeaderBackofficeToBallotCrypto = "X-Backoffice-To-Ballot-Crypto-Key"
	HeaderBallotCryptoToBackoffice = "X-Ballot-Crypto-To-Backoffice-Key"
	HeaderAdmin                    = "X-Ballot-Crypto-Admin-Key"
)

var ErrEmptySecret = errors.New("shared secret must not be empty")

// Guard decides whether a presented credential grants access to a service
// boundary.
type Guard interface {
	Validate(presented string) bool
}

// SharedSecret is a Guard comparing the presented value to a provisioned
// secret in constant time.
type SharedSecret struct {
	digest []byte
}

// NewSharedSecret creates a guard for the given secret
func NewSharedSecret(secret string) (*SharedSecret, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &SharedSecret{digest: digest(secret)}, nil
}

// Validate checks the presented secret. Both sides are hashed first so the
// comparison time doesn't depend on the secret length.
func (s *SharedSecret) Validate(presented string) bool {
	if s == nil || presented == "" {
		return false
	}
	return hmac.Equal(digest(presented), s.digest)
}

func digest(v string) []byte {
	sum := sha256.Sum256([]byte(v))
	return sum[:]
}

// GuardFunc adapts a function to the Guard interface
type GuardFunc func(presented string) bool

func (f GuardFunc) Validate(presented string) bool {
	return f(presented)
}
