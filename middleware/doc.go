// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote, request_id) and completion
(status, duration_ms), and counts requests per route in
ballot_crypto_http_requests_total. Request bodies are never logged; they
carry ballots.

# Request IDs

RequestID reuses the caller's X-Request-Id or generates a UUID, echoes it
in the response and stores it in the request context:

	id := middleware.GetRequestID(r.Context())

# Service Guards

WithGuard checks a shared-secret header before the handler runs:

	middleware.WithGuard(auth.HeaderAdmin, adminGuard, h.CreateKeys)

Failures answer 401 {"code":"UNAUTHORIZED"}.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusAccepted, data)
	middleware.WriteError(w, err)

WriteError maps *apperr.Error kinds to their status and {code, message}
body. Anything else becomes a generic INTERNAL_SERVER_ERROR.

Parse JSON request bodies:

	var req models.CountBallotsRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

# Recovery and CORS

Recover turns handler panics into 500 responses. CORS answers preflight
requests and exposes X-Request-Id.
*/
package middleware
