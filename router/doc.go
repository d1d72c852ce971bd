// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ballot-crypto API.

# Route Registration

NewRouter builds the handler tree from its dependencies:

	handler := router.NewRouter(router.Deps{
		Counter:      engine,
		Jobs:         jobStore,
		Keys:         keyManager,
		InboundGuard: inboundGuard,
		AdminGuard:   adminGuard,
		Gatherer:     registry,
	})

Every request goes through Recover, RequestID and CORS.

# Endpoints

Public:

	GET /health  - Liveness
	GET /version - Service name and version
	GET /metrics - Prometheus metrics

Counting (requires X-Backoffice-To-Ballot-Crypto-Key):

	POST /ballots/count                       - Schedule a count
	GET  /ballots/jobs/{jobId}                - Job ledger record
	GET  /ballots/elections/{electionId}/jobs - Jobs of an election

Key administration (requires X-Ballot-Crypto-Admin-Key):

	POST   /keys               - Create election keys
	GET    /keys/{electionId}  - Public keys
	DELETE /keys/{electionId}  - Destroy election keys
*/
package router
