// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CountBallotsRequest: electionId, ballots (base64 ciphertexts)
  - CreateKeysRequest: electionId

# Response Types

Types for JSON responses:

  - CountBallotsResponse: message, jobId
  - CreateKeysResponse: message, encryptionPublicKey, signingPublicKey
  - ElectionKeysResponse: electionId and both public keys
  - ErrorResponse: code, message

# Domain Types

  - CandidateTally: candidateId and votes
  - SignedResult: ordered tallies and their signature
  - BallotPayload: the decrypted ballot JSON
  - TallyJob: ledger record of a counting job (metadata only)

# Constants

Key status values, as stored by the system of record:

	KeyStatusPending      = "PENDING_CREATED"
	KeyStatusCreated      = "CREATED"
	KeyStatusCreateFailed = "FAILED_CREATED"
	KeyStatusDestroyed    = "DESTROYED"

Result status values:

	ResultCountSuccess = "COUNT_SUCCESS"
	ResultCountFailed  = "COUNT_FAILED"
*/
package models
