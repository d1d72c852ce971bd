// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package reporter pushes election key statuses and counting outcomes to the
// backoffice, the system of record. Calls are authenticated with the
// X-Ballot-Crypto-To-Backoffice-Key header and are never retried; a failed
// report surfaces as REPORTING_FAILED with the remote error code when the
// backoffice sent one.
package reporter
