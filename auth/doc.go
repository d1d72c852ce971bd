// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the inter-service auth guard.

# Shared Secrets

The backoffice and this service trust each other through a pair of symmetric
secrets, one per call direction, carried as custom headers:

	X-Backoffice-To-Ballot-Crypto-Key   inbound, ballot counting and jobs
	X-Ballot-Crypto-Admin-Key           inbound, key administration
	X-Ballot-Crypto-To-Backoffice-Key   outbound, result and key status reports

This is a capability check, not a session. There is no expiry or rotation;
secrets are provisioned out of band.

# Guards

A Guard validates a presented secret:

	guard, err := auth.NewSharedSecret(cfg.BackofficeToBallotCryptoKey)
	ok := guard.Validate(r.Header.Get(auth.HeaderBackofficeToBallotCrypto))

SharedSecret compares SHA-256 digests with hmac.Equal. Any other
implementation (mutual TLS, signed tokens) can be injected per boundary
through the Guard interface.
*/
package auth
