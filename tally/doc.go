// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally counts encrypted ballots and signs the result.

# Scheduling

CountBallots runs the admission check synchronously: the election's keys
must exist and be enabled. It then puts a job on a bounded queue and
returns a Ticket. A fixed pool of workers runs jobs detached from the
request. A second count for an election that already has a job queued or
running is refused with ELECTION_COUNT_IN_PROGRESS; a full queue is
refused with COUNT_QUEUE_FULL.

# Counting

Ballots are decrypted in batches of BatchSize. Batches run one after the
other and the ballots of a batch are decrypted concurrently. The first
ballot that fails to decrypt, or whose plaintext is not a JSON object with
a non-empty candidateId, fails the whole job: COUNT_FAILED is reported
without result or signature.

# Signing

Tallies are sorted by candidate ID and encoded with Canonical before
signing, so the signature depends only on the counts:

	[{"candidateId":"A","votes":2},{"candidateId":"B","votes":1}]

# Completion

Every scheduled job ends with exactly one report to the backoffice and one
call of Options.OnComplete with outcome REPORTED_SUCCESS, REPORTED_FAILURE
or REPORTING_ERROR. Failed reports are not retried.
*/
package tally
