// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the closed set of error kinds used across the service.

Every component returns *apperr.Error for expected failures so callers can
branch on the kind instead of inspecting response bodies:

	if apperr.IsKind(err, apperr.KeyAlreadyExists) {
		// conflict, don't retry
	}

Each kind maps to a wire code and an HTTP status:

	ELECTION_KEY_NOT_FOUND     404
	KEY_NOT_ENABLED            409
	KEY_ALREADY_EXIST          409
	KEY_NOT_FOUND              404
	ELECTION_COUNT_IN_PROGRESS 409
	COUNT_QUEUE_FULL           503
	UNAUTHORIZED               401
	INTERNAL_SERVER_ERROR      500

Errors produced by the result reporter keep the code returned by the system
of record in the Code field.
*/
package apperr
