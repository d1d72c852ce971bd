// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first. It never overrides
variables already present in the environment.

# CLI Flags

	-p              Server port
	-env            development or production
	-d              Database URL
	-t              Database type (sqlite or postgres)
	-kms            KMS provider (gcp or memory)
	-backoffice-url Backoffice admin API base URL
	-workers        Concurrent counting jobs
	-queue-size     Queued counting jobs
	-inbound-key    Backoffice to ballot-crypto secret
	-outbound-key   Ballot-crypto to backoffice secret
	-admin-key      Key administration secret

# Environment Variables

	PORT                            (default 5000)
	APP_ENV                         (default production)
	DATABASE_TYPE, DATABASE_URL     (default sqlite, file:ballot-crypto.db)
	KMS_PROVIDER                    (default gcp)
	GCP_PROJECT_ID, GCP_LOCATION
	GCP_ENCRYPTION_KEY_RING, GCP_SIGNING_KEY_RING
	GCP_CLIENT_EMAIL, GCP_PRIVATE_KEY (optional, else default credentials)
	BACKOFFICE_URL
	BACKOFFICE_TO_BALLOT_CRYPTO_KEY
	BALLOT_CRYPTO_TO_BACKOFFICE_KEY
	BALLOT_CRYPTO_ADMIN_KEY
	COUNT_WORKERS                   (default 2)
	COUNT_QUEUE_SIZE                (default 64)

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - any of the three shared secrets or BACKOFFICE_URL is missing
  - the admin secret equals the inbound ballot secret
  - KMS_PROVIDER=gcp and a GCP setting is missing, or both key rings are equal
  - KMS_PROVIDER=memory in production
*/
package cliparse
