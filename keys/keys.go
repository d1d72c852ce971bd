// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package keys

import (
	"context"
	"log/slog"

	"github.com/PPLEThai/pple-today-sub002/apperr"
	"github.com/PPLEThai/pple-today-sub002/kms"
	"github.com/PPLEThai/pple-today-sub002/metrics"
	"github.com/PPLEThai/pple-today-sub002/models"
	"github.com/PPLEThai/pple-today-sub002/reporter"
)

// StatusReporter receives key status changes
type StatusReporter interface {
	UpdateElectionKeys(ctx context.Context, u reporter.KeysUpdate) error
}

// ElectionKeys are the public halves of an election's key pairs
type ElectionKeys struct {
	ElectionID          string
	EncryptionPublicKey string
	SigningPublicKey    string
}

// Manager drives the per-election key lifecycle. It is the only writer of
// key state.
type Manager struct {
	kms      kms.Client
	reporter StatusReporter
}

func NewManager(client kms.Client, r StatusReporter) *Manager {
	return &Manager{kms: client, reporter: r}
}

// Create provisions the encryption and signing keys of an election and
// reports CREATED with both public keys. An election that already has both
// keys is a conflict and is neither retried nor reported. Any other failure
// reports FAILED_CREATED; calling Create again picks up where the failed
// attempt stopped.
func (m *Manager) Create(ctx context.Context, electionID string) (ElectionKeys, error) {
	if !kms.ValidElectionID(electionID) {
		return ElectionKeys{}, apperr.New(apperr.BadRequest, "Invalid election ID")
	}
	log := slog.With("election_id", electionID)

	if err := m.kms.CreateEncryptionKey(ctx, electionID); err != nil {
		if !apperr.IsKind(err, apperr.KeyAlreadyExists) {
			return ElectionKeys{}, m.createFailed(ctx, electionID, err)
		}
		if !m.signingKeyMissing(ctx, electionID) {
			log.Info("election keys already exist")
			metrics.KeyOperations.WithLabelValues("create", apperr.KeyAlreadyExists.Code()).Inc()
			return ElectionKeys{}, err
		}
		log.Info("resuming election key creation")
	}

	// A signing key left by an earlier attempt is reused
	if err := m.kms.CreateSigningKey(ctx, electionID); err != nil && !apperr.IsKind(err, apperr.KeyAlreadyExists) {
		return ElectionKeys{}, m.createFailed(ctx, electionID, err)
	}

	keys, err := m.Get(ctx, electionID)
	if err != nil {
		return ElectionKeys{}, m.createFailed(ctx, electionID, err)
	}

	err = m.reporter.UpdateElectionKeys(ctx, reporter.KeysUpdate{
		ElectionID:          electionID,
		Status:              models.KeyStatusCreated,
		EncryptionPublicKey: keys.EncryptionPublicKey,
		SigningPublicKey:    keys.SigningPublicKey,
	})
	if err != nil {
		log.Error("failed to report created keys", "error", err)
		metrics.KeyOperations.WithLabelValues("create", apperr.From(err).Code).Inc()
		return ElectionKeys{}, err
	}

	log.Info("election keys created")
	metrics.KeyOperations.WithLabelValues("create", "OK").Inc()
	return keys, nil
}

// signingKeyMissing reports whether an earlier attempt stopped after the
// encryption key.
func (m *Manager) signingKeyMissing(ctx context.Context, electionID string) bool {
	_, err := m.kms.GetSigningPublicKey(ctx, electionID)
	return apperr.IsKind(err, apperr.KeyNotFound)
}

func (m *Manager) createFailed(ctx context.Context, electionID string, cause error) error {
	slog.Error("failed to create election keys", "election_id", electionID, "error", cause)
	metrics.KeyOperations.WithLabelValues("create", apperr.From(cause).Code).Inc()

	err := m.reporter.UpdateElectionKeys(ctx, reporter.KeysUpdate{
		ElectionID: electionID,
		Status:     models.KeyStatusCreateFailed,
	})
	if err != nil {
		slog.Error("failed to report key creation failure", "election_id", electionID, "error", err)
	}
	return cause
}

// Get returns both public keys of an election
func (m *Manager) Get(ctx context.Context, electionID string) (ElectionKeys, error) {
	if !kms.ValidElectionID(electionID) {
		return ElectionKeys{}, apperr.New(apperr.KeyNotFound, "Key not found")
	}

	enc, err := m.kms.GetPublicKey(ctx, electionID)
	if err != nil {
		return ElectionKeys{}, err
	}
	sig, err := m.kms.GetSigningPublicKey(ctx, electionID)
	if err != nil {
		return ElectionKeys{}, err
	}

	return ElectionKeys{
		ElectionID:          electionID,
		EncryptionPublicKey: enc,
		SigningPublicKey:    sig,
	}, nil
}

// Destroy retires both keys. Destroying twice, or destroying an election
// that never had keys, succeeds.
func (m *Manager) Destroy(ctx context.Context, electionID string) error {
	if !kms.ValidElectionID(electionID) {
		return apperr.New(apperr.KeyNotFound, "Key not found")
	}

	if err := m.kms.DestroyKeys(ctx, electionID); err != nil {
		metrics.KeyOperations.WithLabelValues("destroy", apperr.From(err).Code).Inc()
		return err
	}

	slog.Info("election keys destroyed", "election_id", electionID)
	metrics.KeyOperations.WithLabelValues("destroy", "OK").Inc()
	return nil
}
