// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kms

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/PPLEThai/pple-today-sub002/apperr"
)

type keyState int

const (
	stateEnabled keyState = iota
	stateDisabled
	stateDestroyed
)

type memoryKey struct {
	priv  *rsa.PrivateKey
	state keyState
}

// Memory is an in-process software KMS with the same semantics as GCP.
// Private keys live in process memory, so it is for development and tests
// only.
type Memory struct {
	mu      sync.RWMutex
	bits    int
	locator Locator
	keys    map[string]*memoryKey
}

// NewMemory creates an empty software KMS generating RSA keys of the given
// size. Zero means 2048.
func NewMemory(bits int) *Memory {
	if bits == 0 {
		bits = 2048
	}
	return &Memory{
		bits: bits,
		locator: Locator{
			ProjectID:         "local",
			Location:          "local",
			EncryptionKeyRing: "encryption",
			SigningKeyRing:    "signing",
		},
		keys: make(map[string]*memoryKey),
	}
}

func (m *Memory) CreateEncryptionKey(ctx context.Context, electionID string) error {
	return m.create(m.locator.EncryptionVersion(electionID))
}

func (m *Memory) CreateSigningKey(ctx context.Context, electionID string) error {
	return m.create(m.locator.SigningVersion(electionID))
}

func (m *Memory) create(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Like Cloud KMS, a destroyed key still occupies its ID
	if _, ok := m.keys[name]; ok {
		return apperr.New(apperr.KeyAlreadyExists, "Key already exists")
	}

	priv, err := rsa.GenerateKey(rand.Reader, m.bits)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "Failed to create key")
	}
	m.keys[name] = &memoryKey{priv: priv, state: stateEnabled}
	return nil
}

func (m *Memory) GetPublicKey(ctx context.Context, electionID string) (string, error) {
	return m.publicKey(m.locator.EncryptionVersion(electionID))
}

func (m *Memory) GetSigningPublicKey(ctx context.Context, electionID string) (string, error) {
	return m.publicKey(m.locator.SigningVersion(electionID))
}

func (m *Memory) publicKey(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k, ok := m.keys[name]
	if !ok {
		return "", apperr.New(apperr.KeyNotFound, "Key not found")
	}
	if k.state == stateDestroyed {
		return "", apperr.New(apperr.KeyNotEnabled, "Key version is DESTROYED")
	}

	pemKey, err := encodePublicKeyPEM(&k.priv.PublicKey)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "Failed to encode public key")
	}
	return pemKey, nil
}

func (m *Memory) CheckIfKeysValid(ctx context.Context, electionID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range []string{m.locator.EncryptionVersion(electionID), m.locator.SigningVersion(electionID)} {
		k, ok := m.keys[name]
		if !ok {
			return apperr.New(apperr.ElectionKeyNotFound, "Election key not found")
		}
		if k.state != stateEnabled {
			return apperr.New(apperr.KeyNotEnabled, "Election key is not enabled")
		}
	}
	return nil
}

func (m *Memory) DecryptCiphertext(ctx context.Context, electionID, ciphertext string) (string, error) {
	raw, err := decodeCiphertext(ciphertext)
	if err != nil {
		return "", err
	}

	priv, err := m.enabledKey(m.locator.EncryptionVersion(electionID), apperr.DecryptionFailed)
	if err != nil {
		return "", err
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), nil, priv, raw, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.DecryptionFailed, err, "Failed to decrypt ballot")
	}
	return string(plaintext), nil
}

func (m *Memory) CreateSignature(ctx context.Context, electionID string, payload []byte) (string, error) {
	priv, err := m.enabledKey(m.locator.SigningVersion(electionID), apperr.SigningFailed)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, sum[:])
	if err != nil {
		return "", apperr.Wrap(apperr.SigningFailed, err, "Failed to sign result")
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

func (m *Memory) enabledKey(name string, kind apperr.Kind) (*rsa.PrivateKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k, ok := m.keys[name]
	if !ok {
		return nil, apperr.New(kind, "Key not found")
	}
	if k.state != stateEnabled {
		return nil, apperr.New(kind, "Key is not enabled")
	}
	return k.priv, nil
}

func (m *Memory) DestroyKeys(ctx context.Context, electionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range []string{m.locator.EncryptionVersion(electionID), m.locator.SigningVersion(electionID)} {
		if k, ok := m.keys[name]; ok && k.state != stateDestroyed {
			k.state = stateDestroyed
		}
	}
	return nil
}

// Disable leaves both keys in place but unusable, the state of an election
// whose key creation failed halfway.
func (m *Memory) Disable(electionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, name := range []string{m.locator.EncryptionVersion(electionID), m.locator.SigningVersion(electionID)} {
		if k, ok := m.keys[name]; ok {
			found = true
			if k.state == stateEnabled {
				k.state = stateDisabled
			}
		}
	}
	if !found {
		return fmt.Errorf("no keys for election %q", electionID)
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
