// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PPLEThai/pple-today-sub002/apperr"
	"github.com/PPLEThai/pple-today-sub002/auth"
	"github.com/PPLEThai/pple-today-sub002/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	// Logging must not interfere with status codes or bodies
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Accepted", http.StatusAccepted, `{"jobId":"123"}`},
		{"BadRequest", http.StatusBadRequest, `{"code":"BAD_REQUEST"}`},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/ballots/count", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		if seen == "" {
			t.Fatal("Expected a generated request ID")
		}
		if got := w.Header().Get(HeaderRequestID); got != seen {
			t.Errorf("Expected response header %q, got %q", seen, got)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set(HeaderRequestID, "upstream-id")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen != "upstream-id" {
			t.Errorf("Expected 'upstream-id', got %q", seen)
		}
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", 500))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if len(seen) > 128 {
			t.Errorf("Expected oversized request ID to be replaced, got length %d", len(seen))
		}
	})
}

func TestWithGuard(t *testing.T) {
	guard, err := auth.NewSharedSecret("inbound-secret")
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantCalled bool
	}{
		{"valid secret", auth.HeaderBackofficeToBallotCrypto, "inbound-secret", http.StatusOK, true},
		{"missing header", "", "", http.StatusUnauthorized, false},
		{"wrong secret", auth.HeaderBackofficeToBallotCrypto, "nope", http.StatusUnauthorized, false},
		{"secret in wrong header", auth.HeaderAdmin, "inbound-secret", http.StatusUnauthorized, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := WithGuard(auth.HeaderBackofficeToBallotCrypto, guard, func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/ballots/count", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, w.Code)
			}
			if called != tc.wantCalled {
				t.Errorf("Expected handler called=%v, got %v", tc.wantCalled, called)
			}
			if !tc.wantCalled {
				var resp models.ErrorResponse
				json.NewDecoder(w.Body).Decode(&resp)
				if resp.Code != "UNAUTHORIZED" {
					t.Errorf("Expected code UNAUTHORIZED, got %q", resp.Code)
				}
			}
		})
	}
}

func TestWithGuard_NilGuardRejects(t *testing.T) {
	handler := WithGuard(auth.HeaderAdmin, nil, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run without a guard")
	})

	req := httptest.NewRequest("POST", "/keys", nil)
	req.Header.Set(auth.HeaderAdmin, "anything")
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Error("Panic value must not leak into the response")
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "accepted response",
			statusCode: http.StatusAccepted,
			data:       models.CountBallotsResponse{Message: "Counting scheduled", JobID: "j1"},
			expected:   `{"message":"Counting scheduled","jobId":"j1"}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusConflict,
			data:       models.ErrorResponse{Code: "KEY_NOT_ENABLED", Message: "Election key is not enabled"},
			expected:   `{"code":"KEY_NOT_ENABLED","message":"Election key is not enabled"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", ct)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tc.expected {
				t.Errorf("Expected body %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"key not found", apperr.New(apperr.ElectionKeyNotFound, "Election key not found"), http.StatusNotFound, "ELECTION_KEY_NOT_FOUND", "Election key not found"},
		{"key not enabled", apperr.New(apperr.KeyNotEnabled, "Election key is not enabled"), http.StatusConflict, "KEY_NOT_ENABLED", "Election key is not enabled"},
		{"already exists", apperr.New(apperr.KeyAlreadyExists, "Key already exists"), http.StatusConflict, "KEY_ALREADY_EXIST", "Key already exists"},
		{"queue full", apperr.New(apperr.QueueFull, "Counting queue is full"), http.StatusServiceUnavailable, "COUNT_QUEUE_FULL", "Counting queue is full"},
		{"untagged", errors.New("database exploded"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			if w.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Code != tc.wantCode || resp.Message != tc.wantMsg {
				t.Errorf("Expected %s/%q, got %s/%q", tc.wantCode, tc.wantMsg, resp.Code, resp.Message)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/ballots/count", strings.NewReader(`{"electionId":"e1","ballots":["a","b"]}`))
		w := httptest.NewRecorder()

		var body models.CountBallotsRequest
		if err := ParseJSONBody(w, req, &body); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if body.ElectionID != "e1" || len(body.Ballots) != 2 {
			t.Errorf("Unexpected body %+v", body)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/ballots/count", strings.NewReader(`{"electionId":`))
		w := httptest.NewRecorder()

		var body models.CountBallotsRequest
		err := ParseJSONBody(w, req, &body)
		if !apperr.IsKind(err, apperr.BadRequest) {
			t.Errorf("Expected BAD_REQUEST, got %v", err)
		}
	})
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("OPTIONS", "/keys", nil)
	req.Header.Set("Origin", "https://backoffice.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected preflight status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://backoffice.example" {
		t.Errorf("Expected origin to be echoed, got %q", got)
	}
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		expected   string
	}{
		{"X-Forwarded-For single", "10.0.0.1", "", "127.0.0.1:1234", "10.0.0.1"},
		{"X-Forwarded-For chain", "10.0.0.1, 10.0.0.2", "", "127.0.0.1:1234", "10.0.0.1"},
		{"X-Real-IP", "", "10.0.0.3", "127.0.0.1:1234", "10.0.0.3"},
		{"RemoteAddr with port", "", "", "192.168.1.1:5000", "192.168.1.1"},
		{"RemoteAddr without port", "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}

			if got := GetClientIP(req); got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}
