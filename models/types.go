package models

import "time"

// Key status values reported to the system of record
type KeyStatus string

const (
	KeyStatusPending      KeyStatus = "PENDING_CREATED"
	KeyStatusCreated      KeyStatus = "CREATED"
	KeyStatusCreateFailed KeyStatus = "FAILED_CREATED"
	KeyStatusDestroyed    KeyStatus = "DESTROYED"
)

// Online result status values reported to the system of record
type ResultStatus string

const (
	ResultCountSuccess ResultStatus = "COUNT_SUCCESS"
	ResultCountFailed  ResultStatus = "COUNT_FAILED"
)

// Tally job ledger status values
const (
	JobStatusScheduled = "SCHEDULED"
	JobStatusRunning   = "RUNNING"
	JobStatusSucceeded = "COUNT_SUCCESS"
	JobStatusFailed    = "COUNT_FAILED"
)

// Request types

type CountBallotsRequest struct {
	ElectionID string   `json:"electionId"`
	Ballots    []string `json:"ballots"`
}

type CreateKeysRequest struct {
	ElectionID string `json:"electionId"`
}

// Response types

type CountBallotsResponse struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

type CreateKeysResponse struct {
	Message             string `json:"message"`
	EncryptionPublicKey string `json:"encryptionPublicKey"`
	SigningPublicKey    string `json:"signingPublicKey"`
}

type ElectionKeysResponse struct {
	ElectionID          string `json:"electionId"`
	EncryptionPublicKey string `json:"encryptionPublicKey"`
	SigningPublicKey    string `json:"signingPublicKey"`
}

// Domain types

// CandidateTally is the vote total of one candidate. Field order matters:
// keys are encoded in lexicographic order for the canonical form.
type CandidateTally struct {
	CandidateID string `json:"candidateId"`
	Votes       int    `json:"votes"`
}

type SignedResult struct {
	Result    []CandidateTally `json:"result"`
	Signature string           `json:"signature"`
}

// BallotPayload is the plaintext JSON inside a ballot ciphertext
type BallotPayload struct {
	CandidateID *string `json:"candidateId"`
}

// TallyJob is the ledger record of a counting job. It never holds ballots,
// plaintext, or counts.
type TallyJob struct {
	ID          string     `json:"id"`
	ElectionID  string     `json:"electionId"`
	BallotCount int        `json:"ballotCount"`
	Status      string     `json:"status"`
	Outcome     *string    `json:"outcome,omitempty"`
	ErrorCode   *string    `json:"errorCode,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// Error response

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
