// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kms

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"regexp"

	"github.com/PPLEThai/pple-today-sub002/apperr"
)

// KeyVersion is the only key version the service ever uses per election.
const KeyVersion = 1

// Client is the narrow contract over the external key management service.
// Every method is a fallible network call; expected failures come back as
// *apperr.Error, never as panics.
type Client interface {
	CreateEncryptionKey(ctx context.Context, electionID string) error
	CreateSigningKey(ctx context.Context, electionID string) error
	GetPublicKey(ctx context.Context, electionID string) (string, error)
	GetSigningPublicKey(ctx context.Context, electionID string) (string, error)
	CheckIfKeysValid(ctx context.Context, electionID string) error
	DecryptCiphertext(ctx context.Context, electionID, ciphertext string) (string, error)
	CreateSignature(ctx context.Context, electionID string, payload []byte) (string, error)
	DestroyKeys(ctx context.Context, electionID string) error
	Close() error
}

// Locator addresses keys as
// projects/{project}/locations/{location}/keyRings/{ring}/cryptoKeys/{electionID}.
type Locator struct {
	ProjectID         string
	Location          string
	EncryptionKeyRing string
	SigningKeyRing    string
}

func (l Locator) KeyRingName(ring string) string {
	return fmt.Sprintf("projects/%s/locations/%s/keyRings/%s", l.ProjectID, l.Location, ring)
}

func (l Locator) CryptoKeyName(ring, electionID string) string {
	return fmt.Sprintf("%s/cryptoKeys/%s", l.KeyRingName(ring), electionID)
}

func (l Locator) VersionName(ring, electionID string, version int) string {
	return fmt.Sprintf("%s/cryptoKeyVersions/%d", l.CryptoKeyName(ring, electionID), version)
}

func (l Locator) EncryptionVersion(electionID string) string {
	return l.VersionName(l.EncryptionKeyRing, electionID, KeyVersion)
}

func (l Locator) SigningVersion(electionID string) string {
	return l.VersionName(l.SigningKeyRing, electionID, KeyVersion)
}

// Crypto key IDs accepted by Cloud KMS
var electionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,63}$`)

// ValidElectionID reports whether id can name a crypto key
func ValidElectionID(id string) bool {
	return electionIDPattern.MatchString(id)
}

// Encrypt encrypts plaintext for an election's public encryption key with
// RSA-OAEP-SHA256 and returns base64 ciphertext, the ballot wire format.
// Voter clients do the same thing upstream.
func Encrypt(publicKeyPEM string, plaintext []byte) (string, error) {
	pub, err := parseRSAPublicKey(publicKeyPEM)
	if err != nil {
		return "", err
	}

	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Verify checks a base64 RSA PKCS#1 v1.5 SHA-256 signature over payload
// against an election's public signing key.
func Verify(publicKeyPEM string, payload []byte, signature string) error {
	pub, err := parseRSAPublicKey(publicKeyPEM)
	if err != nil {
		return err
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	sum := sha256.Sum256(payload)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, sum[:], sig)
}

func parseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("invalid PEM public key")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return pub, nil
}

func encodePublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

func decodeCiphertext(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecryptionFailed, err, "Ciphertext is not valid base64")
	}
	if len(raw) == 0 {
		return nil, apperr.New(apperr.DecryptionFailed, "Ciphertext is empty")
	}
	return raw, nil
}
