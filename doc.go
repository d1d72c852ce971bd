// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ballot-crypto server.

ballot-crypto owns the per-election keys of online elections in Cloud KMS
and counts encrypted ballots. Counting decrypts ballots in batches,
aggregates votes per candidate, signs the sorted tally with the election's
signing key and pushes the outcome to the backoffice.

# Starting the Server

Configuration comes from flags, the environment, or a .env file:

	KMS_PROVIDER=memory APP_ENV=development BACKOFFICE_URL=http://localhost:3000/admin \
	BACKOFFICE_TO_BALLOT_CRYPTO_KEY=... BALLOT_CRYPTO_TO_BACKOFFICE_KEY=... \
	BALLOT_CRYPTO_ADMIN_KEY=... go run .

# Configuration

Required settings:

  - BACKOFFICE_URL (-backoffice-url): base URL of the backoffice admin API
  - BACKOFFICE_TO_BALLOT_CRYPTO_KEY (-inbound-key): secret the backoffice sends
  - BALLOT_CRYPTO_TO_BACKOFFICE_KEY (-outbound-key): secret sent to the backoffice
  - BALLOT_CRYPTO_ADMIN_KEY (-admin-key): secret for key administration
  - GCP_PROJECT_ID, GCP_LOCATION, GCP_ENCRYPTION_KEY_RING,
    GCP_SIGNING_KEY_RING: when KMS_PROVIDER is gcp

Optional settings:

  - PORT (-p): server port (default: 5000)
  - APP_ENV (-env): development or production (default: production)
  - DATABASE_TYPE (-t), DATABASE_URL (-d): job ledger, sqlite (default) or postgres
  - KMS_PROVIDER (-kms): gcp (default) or memory, memory is refused in production
  - GCP_CLIENT_EMAIL, GCP_PRIVATE_KEY: service account, otherwise default credentials
  - COUNT_WORKERS (-workers), COUNT_QUEUE_SIZE (-queue-size): 2 and 64

# Architecture

  - kms: key management client (Cloud KMS, in-memory)
  - keys: election key lifecycle
  - tally: counting engine with bounded queue and worker pool
  - reporter: outbound client to the backoffice
  - auth: shared-secret guards
  - handlers, router, middleware: HTTP surface
  - db: job ledger
  - metrics: Prometheus collectors
  - apperr: error kinds and wire codes
  - cliparse: configuration parsing

On SIGINT or SIGTERM the server stops accepting requests, then waits for
queued and running counts to finish reporting.

See package documentation for each component.
*/
package main
