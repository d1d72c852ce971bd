// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/PPLEThai/pple-today-sub002/apperr"
	"github.com/PPLEThai/pple-today-sub002/auth"
	"github.com/PPLEThai/pple-today-sub002/metrics"
	"github.com/PPLEThai/pple-today-sub002/models"
)

// HeaderRequestID carries the request ID in both directions
const HeaderRequestID = "X-Request-Id"

// MaxBodyBytes bounds inbound JSON bodies
const MaxBodyBytes = 64 << 20

type ctxKey struct{}

// RequestID tags each request with an ID, reusing the caller's when given
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// GetRequestID returns the request ID stored by RequestID
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// WithLogging wraps a handler with request logging. Bodies are never logged.
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		requestID := GetRequestID(r.Context())

		// Log request
		slog.Info("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", GetClientIP(r),
			"request_id", requestID,
		)

		next(rec, r)

		duration := time.Since(start)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
			"request_id", requestID,
		)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	}
}

// WithGuard rejects requests whose header doesn't satisfy guard before
// next runs.
func WithGuard(header string, guard auth.Guard, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if guard == nil || !guard.Validate(r.Header.Get(header)) {
			slog.Warn("unauthorized request",
				"path", r.URL.Path,
				"remote", GetClientIP(r),
				"request_id", GetRequestID(r.Context()),
			)
			WriteError(w, apperr.New(apperr.Unauthorized, "Unauthorized"))
			return
		}
		next(w, r)
	}
}

// Recover turns a panic into a 500 response
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				slog.Error("handler panicked",
					"path", r.URL.Path,
					"panic", fmt.Sprint(v),
					"request_id", GetRequestID(r.Context()),
				)
				WriteError(w, apperr.New(apperr.Internal, "An unexpected error occurred"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// WriteError writes err as {code, message} with the status of its kind.
// Untagged errors become a generic 500 and are logged.
func WriteError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	status := e.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", e.Code, "error", err)
	}
	ErrorResponse(w, status, e.Code, e.Message)
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.BadRequest, err, "Request body too large")
		}
		return apperr.Wrap(apperr.BadRequest, err, "Invalid JSON")
	}
	return nil
}

// CORS middleware allows cross-origin requests
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderRequestID+", "+auth.HeaderBackofficeToBallotCrypto+", "+auth.HeaderAdmin)
		w.Header().Set("Access-Control-Expose-Headers", HeaderRequestID)

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For (load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in chain
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' || xff[i] == ' ' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Strip port if present
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
