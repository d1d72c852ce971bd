// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ballot-crypto API.

# Handler Types

Each handler is a struct over the narrow interface it needs:

  - BallotHandler: counting requests and the job ledger
  - KeyHandler: election key administration

	ballotHandler := handlers.NewBallotHandler(engine, jobStore)
	keyHandler := handlers.NewKeyHandler(keyManager)

# Counting

	POST /ballots/count                       → CountBallots (202, returns jobId)
	GET  /ballots/jobs/{jobId}                → GetJob
	GET  /ballots/elections/{electionId}/jobs → ListElectionJobs

Requires the X-Backoffice-To-Ballot-Crypto-Key header. The count outcome
is not part of the response; it is pushed to the backoffice when the job
ends.

# Keys

	POST   /keys               → CreateKeys (201, returns both public keys)
	GET    /keys/{electionId}  → GetKeys
	DELETE /keys/{electionId}  → DestroyKeys (204)

Requires the X-Ballot-Crypto-Admin-Key header.

# Errors

Every failure is a {code, message} body written by middleware.WriteError.
*/
package handlers
