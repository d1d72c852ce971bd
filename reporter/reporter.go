// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PPLEThai/pple-today-sub002/apperr"
	"github.com/PPLEThai/pple-today-sub002/auth"
	"github.com/PPLEThai/pple-today-sub002/models"
)

// ResultUpdate is the outcome of a counting job. Result and Signature are
// set only for COUNT_SUCCESS.
type ResultUpdate struct {
	ElectionID string
	Status     models.ResultStatus
	Signature  string
	Result     []models.CandidateTally
}

// KeysUpdate is the key status of an election. Public keys are set only for
// CREATED.
type KeysUpdate struct {
	ElectionID          string
	Status              models.KeyStatus
	EncryptionPublicKey string
	SigningPublicKey    string
}

// Result is a pointer so a successful empty count still sends "result":[]
type resultBody struct {
	Status    models.ResultStatus      `json:"status"`
	Signature string                   `json:"signature,omitempty"`
	Result    *[]models.CandidateTally `json:"result,omitempty"`
}

type keysBody struct {
	Status              models.KeyStatus `json:"status"`
	EncryptionPublicKey string           `json:"encryptionPublicKey,omitempty"`
	SigningPublicKey    string           `json:"signingPublicKey,omitempty"`
}

// Client pushes statuses to the system of record. It never retries.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a reporter for the system of record at baseURL,
// authenticating with apiKey.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// UpdateElectionResult sends a counting outcome
func (c *Client) UpdateElectionResult(ctx context.Context, u ResultUpdate) error {
	body := resultBody{Status: u.Status}
	if u.Status == models.ResultCountSuccess {
		result := u.Result
		if result == nil {
			result = []models.CandidateTally{}
		}
		body.Signature = u.Signature
		body.Result = &result
	}
	return c.put(ctx, "/elections/"+url.PathEscape(u.ElectionID)+"/result", body)
}

// UpdateElectionKeys sends a key status change
func (c *Client) UpdateElectionKeys(ctx context.Context, u KeysUpdate) error {
	body := keysBody{Status: u.Status}
	if u.Status == models.KeyStatusCreated {
		body.EncryptionPublicKey = u.EncryptionPublicKey
		body.SigningPublicKey = u.SigningPublicKey
	}
	return c.put(ctx, "/elections/"+url.PathEscape(u.ElectionID)+"/keys", body)
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "Failed to encode report")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperr.Wrap(apperr.ReportingFailed, err, "Failed to build report request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderBallotCryptoToBackoffice, c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("report request failed", "path", path, "error", err)
		return apperr.Wrap(apperr.ReportingFailed, err, "System of record unreachable")
	}
	defer resp.Body.Close()

	slog.Info("report sent",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	return remoteError(resp)
}

// remoteError turns a non-success response into a REPORTING_FAILED error
// carrying the remote code when the body has one.
func remoteError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var flat models.ErrorResponse
	var nested struct {
		Error models.ErrorResponse `json:"error"`
	}

	e := apperr.New(apperr.ReportingFailed, fmt.Sprintf("System of record answered %d", resp.StatusCode))
	switch {
	case json.Unmarshal(raw, &flat) == nil && flat.Code != "":
		e.Code, e.Message = flat.Code, flat.Message
	case json.Unmarshal(raw, &nested) == nil && nested.Error.Code != "":
		e.Code, e.Message = nested.Error.Code, nested.Error.Message
	}
	return e
}
