// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories the service distinguishes.
type Kind int

const (
	Internal Kind = iota
	BadRequest
	Unauthorized
	KeyNotFound
	KeyAlreadyExists
	ElectionKeyNotFound
	KeyNotEnabled
	DecryptionFailed
	SigningFailed
	ReportingFailed
	CountInProgress
	QueueFull
	JobNotFound
)

var kindInfo = map[Kind]struct {
	code   string
	status int
}{
	Internal:            {"INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	BadRequest:          {"BAD_REQUEST", http.StatusBadRequest},
	Unauthorized:        {"UNAUTHORIZED", http.StatusUnauthorized},
	KeyNotFound:         {"KEY_NOT_FOUND", http.StatusNotFound},
	KeyAlreadyExists:    {"KEY_ALREADY_EXIST", http.StatusConflict},
	ElectionKeyNotFound: {"ELECTION_KEY_NOT_FOUND", http.StatusNotFound},
	KeyNotEnabled:       {"KEY_NOT_ENABLED", http.StatusConflict},
	DecryptionFailed:    {"DECRYPTION_FAILED", http.StatusInternalServerError},
	SigningFailed:       {"SIGNING_FAILED", http.StatusInternalServerError},
	ReportingFailed:     {"REPORTING_FAILED", http.StatusBadGateway},
	CountInProgress:     {"ELECTION_COUNT_IN_PROGRESS", http.StatusConflict},
	QueueFull:           {"COUNT_QUEUE_FULL", http.StatusServiceUnavailable},
	JobNotFound:         {"JOB_NOT_FOUND", http.StatusNotFound},
}

// Code returns the wire code of the kind.
func (k Kind) Code() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return kindInfo[Internal].code
}

// HTTPStatus returns the status code an inbound handler answers with.
func (k Kind) HTTPStatus() int {
	if info, ok := kindInfo[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string {
	return k.Code()
}

// Error is a tagged error. Code defaults to the kind's code but can carry a
// code received from a remote service.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel comparisons like
// errors.Is(err, apperr.New(apperr.KeyNotFound, "")) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: kind.Code(), Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Code: kind.Code(), Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// From converts any error into an *Error, defaulting to Internal with a
// generic message so internal details don't leak over the wire.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(Internal, err, "An unexpected error occurred")
}
