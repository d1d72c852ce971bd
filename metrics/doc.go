// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors of the service and the
// /metrics handler. Labels never carry election IDs or candidate IDs.
package metrics
