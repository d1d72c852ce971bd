// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kms

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"strings"
	"time"

	kmsapi "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/PPLEThai/pple-today-sub002/apperr"
)

// keyManagementAPI is the subset of *kmsapi.KeyManagementClient the service uses
type keyManagementAPI interface {
	CreateCryptoKey(ctx context.Context, req *kmspb.CreateCryptoKeyRequest, opts ...gax.CallOption) (*kmspb.CryptoKey, error)
	GetCryptoKeyVersion(ctx context.Context, req *kmspb.GetCryptoKeyVersionRequest, opts ...gax.CallOption) (*kmspb.CryptoKeyVersion, error)
	GetPublicKey(ctx context.Context, req *kmspb.GetPublicKeyRequest, opts ...gax.CallOption) (*kmspb.PublicKey, error)
	AsymmetricDecrypt(ctx context.Context, req *kmspb.AsymmetricDecryptRequest, opts ...gax.CallOption) (*kmspb.AsymmetricDecryptResponse, error)
	AsymmetricSign(ctx context.Context, req *kmspb.AsymmetricSignRequest, opts ...gax.CallOption) (*kmspb.AsymmetricSignResponse, error)
	DestroyCryptoKeyVersion(ctx context.Context, req *kmspb.DestroyCryptoKeyVersionRequest, opts ...gax.CallOption) (*kmspb.CryptoKeyVersion, error)
	Close() error
}

// Fixed algorithms for every election
const (
	EncryptionAlgorithm = kmspb.CryptoKeyVersion_RSA_DECRYPT_OAEP_2048_SHA256
	SigningAlgorithm    = kmspb.CryptoKeyVersion_RSA_SIGN_PKCS1_2048_SHA256
)

type GCPConfig struct {
	Locator
	ClientEmail string
	PrivateKey  string
}

// GCP is the Client backed by Google Cloud KMS
type GCP struct {
	api     keyManagementAPI
	locator Locator

	// Public keys aren't available while a fresh version is generating
	pollInterval time.Duration
	maxPoll      time.Duration
}

// NewGCP connects to Cloud KMS. With ClientEmail and PrivateKey set it uses
// that service account, otherwise application default credentials.
func NewGCP(ctx context.Context, cfg GCPConfig) (*GCP, error) {
	var opts []option.ClientOption
	if cfg.ClientEmail != "" && cfg.PrivateKey != "" {
		creds, err := serviceAccountJSON(cfg.ProjectID, cfg.ClientEmail, cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	client, err := kmsapi.NewKeyManagementClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating KMS client: %w", err)
	}

	return newGCP(client, cfg.Locator), nil
}

func newGCP(api keyManagementAPI, locator Locator) *GCP {
	return &GCP{
		api:          api,
		locator:      locator,
		pollInterval: 250 * time.Millisecond,
		maxPoll:      2 * time.Second,
	}
}

func serviceAccountJSON(projectID, email, privateKey string) ([]byte, error) {
	// Env files usually carry the PEM with escaped newlines
	privateKey = strings.ReplaceAll(privateKey, `\n`, "\n")

	b, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   projectID,
		"client_email": email,
		"private_key":  privateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("encoding service account credentials: %w", err)
	}
	return b, nil
}

func (g *GCP) CreateEncryptionKey(ctx context.Context, electionID string) error {
	return g.createKey(ctx, g.locator.EncryptionKeyRing, electionID,
		kmspb.CryptoKey_ASYMMETRIC_DECRYPT, EncryptionAlgorithm)
}

func (g *GCP) CreateSigningKey(ctx context.Context, electionID string) error {
	return g.createKey(ctx, g.locator.SigningKeyRing, electionID,
		kmspb.CryptoKey_ASYMMETRIC_SIGN, SigningAlgorithm)
}

func (g *GCP) createKey(ctx context.Context, ring, electionID string, purpose kmspb.CryptoKey_CryptoKeyPurpose, alg kmspb.CryptoKeyVersion_CryptoKeyVersionAlgorithm) error {
	_, err := g.api.CreateCryptoKey(ctx, &kmspb.CreateCryptoKeyRequest{
		Parent:      g.locator.KeyRingName(ring),
		CryptoKeyId: electionID,
		CryptoKey: &kmspb.CryptoKey{
			Purpose: purpose,
			VersionTemplate: &kmspb.CryptoKeyVersionTemplate{
				Algorithm:       alg,
				ProtectionLevel: kmspb.ProtectionLevel_SOFTWARE,
			},
		},
	})
	if err != nil {
		return mapStatus(err, apperr.KeyNotFound, "Failed to create key")
	}
	return nil
}

func (g *GCP) GetPublicKey(ctx context.Context, electionID string) (string, error) {
	return g.publicKey(ctx, g.locator.EncryptionVersion(electionID))
}

func (g *GCP) GetSigningPublicKey(ctx context.Context, electionID string) (string, error) {
	return g.publicKey(ctx, g.locator.SigningVersion(electionID))
}

// publicKey waits for the version to leave PENDING_GENERATION, then fetches
// its PEM. The wait is bounded by ctx.
func (g *GCP) publicKey(ctx context.Context, versionName string) (string, error) {
	wait := g.pollInterval
	for {
		v, err := g.api.GetCryptoKeyVersion(ctx, &kmspb.GetCryptoKeyVersionRequest{Name: versionName})
		if err != nil {
			return "", mapStatus(err, apperr.KeyNotFound, "Key not found")
		}

		switch v.GetState() {
		case kmspb.CryptoKeyVersion_ENABLED:
			pk, err := g.api.GetPublicKey(ctx, &kmspb.GetPublicKeyRequest{Name: versionName})
			if err != nil {
				return "", mapStatus(err, apperr.KeyNotFound, "Key not found")
			}
			if pk.GetPemCrc32C() != nil && int64(crc32c([]byte(pk.GetPem()))) != pk.GetPemCrc32C().GetValue() {
				return "", apperr.New(apperr.Internal, "Public key corrupted in transit")
			}
			return pk.GetPem(), nil
		case kmspb.CryptoKeyVersion_PENDING_GENERATION:
		default:
			return "", apperr.New(apperr.KeyNotEnabled, fmt.Sprintf("Key version is %s", v.GetState()))
		}

		select {
		case <-ctx.Done():
			return "", apperr.Wrap(apperr.Internal, ctx.Err(), "Timed out waiting for key generation")
		case <-time.After(wait):
		}
		if wait *= 2; wait > g.maxPoll {
			wait = g.maxPoll
		}
	}
}

func (g *GCP) CheckIfKeysValid(ctx context.Context, electionID string) error {
	for _, name := range []string{g.locator.EncryptionVersion(electionID), g.locator.SigningVersion(electionID)} {
		v, err := g.api.GetCryptoKeyVersion(ctx, &kmspb.GetCryptoKeyVersionRequest{Name: name})
		if err != nil {
			return mapStatus(err, apperr.ElectionKeyNotFound, "Election key not found")
		}
		if v.GetState() != kmspb.CryptoKeyVersion_ENABLED {
			return apperr.New(apperr.KeyNotEnabled, "Election key is not enabled")
		}
	}
	return nil
}

func (g *GCP) DecryptCiphertext(ctx context.Context, electionID, ciphertext string) (string, error) {
	raw, err := decodeCiphertext(ciphertext)
	if err != nil {
		return "", err
	}

	resp, err := g.api.AsymmetricDecrypt(ctx, &kmspb.AsymmetricDecryptRequest{
		Name:             g.locator.EncryptionVersion(electionID),
		Ciphertext:       raw,
		CiphertextCrc32C: wrapperspb.Int64(int64(crc32c(raw))),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.DecryptionFailed, err, "Failed to decrypt ballot")
	}
	if !resp.GetVerifiedCiphertextCrc32C() {
		return "", apperr.New(apperr.DecryptionFailed, "Decrypt request corrupted in transit")
	}
	if int64(crc32c(resp.GetPlaintext())) != resp.GetPlaintextCrc32C().GetValue() {
		return "", apperr.New(apperr.DecryptionFailed, "Decrypt response corrupted in transit")
	}

	return string(resp.GetPlaintext()), nil
}

func (g *GCP) CreateSignature(ctx context.Context, electionID string, payload []byte) (string, error) {
	name := g.locator.SigningVersion(electionID)
	sum := sha256.Sum256(payload)

	resp, err := g.api.AsymmetricSign(ctx, &kmspb.AsymmetricSignRequest{
		Name: name,
		Digest: &kmspb.Digest{
			Digest: &kmspb.Digest_Sha256{Sha256: sum[:]},
		},
		DigestCrc32C: wrapperspb.Int64(int64(crc32c(sum[:]))),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.SigningFailed, err, "Failed to sign result")
	}
	if !resp.GetVerifiedDigestCrc32C() || resp.GetName() != name {
		return "", apperr.New(apperr.SigningFailed, "Sign request corrupted in transit")
	}
	if int64(crc32c(resp.GetSignature())) != resp.GetSignatureCrc32C().GetValue() {
		return "", apperr.New(apperr.SigningFailed, "Sign response corrupted in transit")
	}

	return base64.StdEncoding.EncodeToString(resp.GetSignature()), nil
}

// DestroyKeys schedules destruction of both key versions. Missing or already
// destroyed versions are not an error.
func (g *GCP) DestroyKeys(ctx context.Context, electionID string) error {
	for _, name := range []string{g.locator.EncryptionVersion(electionID), g.locator.SigningVersion(electionID)} {
		_, err := g.api.DestroyCryptoKeyVersion(ctx, &kmspb.DestroyCryptoKeyVersionRequest{Name: name})
		switch status.Code(err) {
		case codes.OK, codes.NotFound, codes.FailedPrecondition:
			continue
		default:
			return apperr.Wrap(apperr.Internal, err, "Failed to destroy key")
		}
	}
	return nil
}

func (g *GCP) Close() error {
	return g.api.Close()
}

var crcTable = crc32.MakeTable(crc32.Castagnoli)

func crc32c(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// mapStatus turns a gRPC status from Cloud KMS into a tagged error
func mapStatus(err error, notFound apperr.Kind, message string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return apperr.Wrap(notFound, err, message)
	case codes.AlreadyExists:
		return apperr.Wrap(apperr.KeyAlreadyExists, err, "Key already exists")
	case codes.FailedPrecondition:
		return apperr.Wrap(apperr.KeyNotEnabled, err, "Key is not enabled")
	default:
		return apperr.Wrap(apperr.Internal, err, message)
	}
}
