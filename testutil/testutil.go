// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PPLEThai/pple-today-sub002/auth"
	"github.com/PPLEThai/pple-today-sub002/cliparse"
	"github.com/PPLEThai/pple-today-sub002/db"
	"github.com/PPLEThai/pple-today-sub002/kms"
)

// Shared secrets used by GetTestConfig
const (
	TestInboundKey  = "test-backoffice-to-ballot-crypto"
	TestOutboundKey = "test-ballot-crypto-to-backoffice"
	TestAdminKey    = "test-admin"
)

// SetupTestDB creates a fresh SQLite ledger in the test's temp dir
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                        3318,
		AppEnv:                      cliparse.EnvDevelopment,
		DatabaseType:                "sqlite",
		KMSProvider:                 cliparse.KMSProviderMemory,
		BackofficeURL:               "http://backoffice.invalid",
		BallotCryptoToBackofficeKey: TestOutboundKey,
		BackofficeToBallotCryptoKey: TestInboundKey,
		AdminKey:                    TestAdminKey,
		CountWorkers:                2,
		CountQueueSize:              8,
	}
}

// CreateTestKeys provisions both keys of an election and returns the public
// encryption and signing keys
func CreateTestKeys(t *testing.T, client *kms.Memory, electionID string) (encryptionKey, signingKey string) {
	t.Helper()

	ctx := t.Context()
	if err := client.CreateEncryptionKey(ctx, electionID); err != nil {
		t.Fatalf("Failed to create encryption key: %v", err)
	}
	if err := client.CreateSigningKey(ctx, electionID); err != nil {
		t.Fatalf("Failed to create signing key: %v", err)
	}

	encryptionKey, err := client.GetPublicKey(ctx, electionID)
	if err != nil {
		t.Fatalf("Failed to get public key: %v", err)
	}
	signingKey, err = client.GetSigningPublicKey(ctx, electionID)
	if err != nil {
		t.Fatalf("Failed to get signing public key: %v", err)
	}
	return encryptionKey, signingKey
}

// EncryptBallots encrypts one ballot per candidate ID the way voter clients do
func EncryptBallots(t *testing.T, publicKeyPEM string, candidateIDs ...string) []string {
	t.Helper()

	out := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		plaintext, _ := json.Marshal(map[string]string{"candidateId": id})
		ct, err := kms.Encrypt(publicKeyPEM, plaintext)
		if err != nil {
			t.Fatalf("Failed to encrypt ballot: %v", err)
		}
		out = append(out, ct)
	}
	return out
}

// Report is one call received by a Backoffice
type Report struct {
	Path string
	Key  string
	Body map[string]any
}

// Backoffice is a fake system of record recording every report
type Backoffice struct {
	*httptest.Server

	mu      sync.Mutex
	reports []Report
	status  int
	notify  chan Report
}

// NewBackoffice starts a fake system of record answering 200
func NewBackoffice(t *testing.T) *Backoffice {
	t.Helper()

	b := &Backoffice{status: http.StatusOK, notify: make(chan Report, 64)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.Close)
	return b
}

func (b *Backoffice) handle(w http.ResponseWriter, r *http.Request) {
	rep := Report{Path: r.URL.Path, Key: r.Header.Get(auth.HeaderBallotCryptoToBackoffice)}
	json.NewDecoder(r.Body).Decode(&rep.Body)

	b.mu.Lock()
	b.reports = append(b.reports, rep)
	status := b.status
	b.mu.Unlock()

	b.notify <- rep

	if status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"code":"BACKOFFICE_ERROR","message":"rejected"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Fail makes the backoffice answer status from now on
func (b *Backoffice) Fail(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

// Reports returns all reports received so far
func (b *Backoffice) Reports() []Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Report(nil), b.reports...)
}

// WaitReport waits for the next report whose path ends with suffix
func (b *Backoffice) WaitReport(t *testing.T, suffix string) Report {
	t.Helper()

	timeout := time.After(10 * time.Second)
	for {
		select {
		case rep := <-b.notify:
			if strings.HasSuffix(rep.Path, suffix) {
				return rep
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for a report to %s", suffix)
			return Report{}
		}
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
