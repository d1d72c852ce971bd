// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package keys manages the key lifecycle of an election.

# States

	PENDING_CREATED --create ok-------> CREATED
	PENDING_CREATED --create failed---> FAILED_CREATED (retry with Create)
	CREATED         --destroy---------> DESTROYED (terminal)

The state itself lives in the KMS as key version states; the backoffice is
told about CREATED and FAILED_CREATED through the reporter. Destroyed keys
are no longer enabled, so the tally engine refuses to count for them.
*/
package keys
