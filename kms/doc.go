// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package kms wraps the external key management service holding each
election's keys.

# Keys

Every election owns two asymmetric keys, both with crypto key ID equal to
the election ID and always used at version 1:

  - encryption key (ASYMMETRIC_DECRYPT, RSA_DECRYPT_OAEP_2048_SHA256) in the
    encryption key ring; voters encrypt ballots under its public key
  - signing key (ASYMMETRIC_SIGN, RSA_SIGN_PKCS1_2048_SHA256) in the signing
    key ring; signs the final tally

Private key material never leaves the KMS.

# Implementations

GCP talks to Google Cloud KMS over gRPC:

	client, err := kms.NewGCP(ctx, kms.GCPConfig{Locator: loc, ClientEmail: email, PrivateKey: pem})

Memory keeps generated RSA keys in process and is meant for local
development and tests:

	client := kms.NewMemory(0)

# Errors

Failures come back as *apperr.Error. gRPC NotFound, AlreadyExists and
FailedPrecondition map to KEY_NOT_FOUND, KEY_ALREADY_EXIST and
KEY_NOT_ENABLED; decrypt and sign failures are DECRYPTION_FAILED and
SIGNING_FAILED. Decrypted plaintext is returned to the caller and never
logged.
*/
package kms
