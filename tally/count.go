// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/PPLEThai/pple-today-sub002/apperr"
	"github.com/PPLEThai/pple-today-sub002/metrics"
	"github.com/PPLEThai/pple-today-sub002/models"
)

// count decrypts every ballot, aggregates the votes and signs the result.
// The first failing ballot aborts the job; no partial result is returned.
func (e *Engine) count(ctx context.Context, j *job) (*models.SignedResult, error) {
	counts := make(map[string]int)

	for start := 0; start < len(j.ballots); start += e.batchSize {
		end := min(start+e.batchSize, len(j.ballots))

		plaintexts, err := e.decryptBatch(ctx, j.electionID, j.ballots[start:end])
		if err != nil {
			return nil, err
		}

		for i, pt := range plaintexts {
			candidateID, err := parseBallot(pt)
			if err != nil {
				return nil, fmt.Errorf("ballot %d: %w", start+i, err)
			}
			counts[candidateID]++
		}
	}

	result := Sorted(counts)
	payload, err := Canonical(result)
	if err != nil {
		return nil, apperr.Wrap(apperr.SigningFailed, err, "Failed to serialize result")
	}

	signature, err := e.crypto.CreateSignature(ctx, j.electionID, payload)
	if err != nil {
		return nil, err
	}

	return &models.SignedResult{Result: result, Signature: signature}, nil
}

// decryptBatch decrypts a batch concurrently and waits for all of it. Each
// goroutine writes only its own slot.
func (e *Engine) decryptBatch(ctx context.Context, electionID string, batch []string) ([]string, error) {
	plaintexts := make([]string, len(batch))
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	for i, ballot := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plaintexts[i], errs[i] = e.crypto.DecryptCiphertext(ctx, electionID, ballot)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	metrics.BallotsDecrypted.Add(float64(len(batch)))
	return plaintexts, nil
}

// parseBallot extracts the candidate from a ballot plaintext. The plaintext
// is never part of the error.
func parseBallot(plaintext string) (string, error) {
	var p models.BallotPayload
	if err := json.Unmarshal([]byte(plaintext), &p); err != nil {
		return "", apperr.New(apperr.DecryptionFailed, "Ballot plaintext is not valid JSON")
	}
	if p.CandidateID == nil || *p.CandidateID == "" {
		return "", apperr.New(apperr.DecryptionFailed, "Ballot plaintext has no candidateId")
	}
	return *p.CandidateID, nil
}

// Sorted turns vote counts into tallies ordered by candidate ID
func Sorted(counts map[string]int) []models.CandidateTally {
	result := make([]models.CandidateTally, 0, len(counts))
	for candidateID, votes := range counts {
		result = append(result, models.CandidateTally{CandidateID: candidateID, Votes: votes})
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CandidateID < result[k].CandidateID
	})
	return result
}

// Canonical is the signed byte form of a result: tallies sorted by candidate
// ID, JSON without whitespace, object keys in lexicographic order. Equal
// counts always give equal bytes.
func Canonical(result []models.CandidateTally) ([]byte, error) {
	sorted := append([]models.CandidateTally{}, result...)
	sort.Slice(sorted, func(i, k int) bool {
		return sorted[i].CandidateID < sorted[k].CandidateID
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sorted); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
