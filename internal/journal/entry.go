package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"simbatch/internal/core"
)

// Entry is a tamper-evident record of one terminated job. Entries form a
// hash chain: each one commits to its predecessor, so rewriting history
// breaks verification. Simulation artifacts are expensive to reproduce,
// which is what makes the provenance worth keeping.
type Entry struct {
	Seq          int    `json:"seq"`
	Timestamp    string `json:"timestamp"`
	BatchID      string `json:"batchId"`
	JobIndex     int    `json:"jobIndex"`
	Status       string `json:"status"`
	ExitCode     int    `json:"exitCode"`
	ArtifactPath string `json:"artifactPath,omitempty"`
	ArtifactHash string `json:"artifactHash,omitempty"`
	PrevHash     string `json:"prevHash"`
	Hash         string `json:"hash"`
	Signature    string `json:"signature,omitempty"`
	PubKey       string `json:"pubKey,omitempty"`
}

// canonicalData returns the JSON bytes the entry hash covers. Hash,
// Signature and PubKey are excluded on purpose.
func (e *Entry) canonicalData() ([]byte, error) {
	view := struct {
		Seq          int    `json:"seq"`
		Timestamp    string `json:"timestamp"`
		BatchID      string `json:"batchId"`
		JobIndex     int    `json:"jobIndex"`
		Status       string `json:"status"`
		ExitCode     int    `json:"exitCode"`
		ArtifactPath string `json:"artifactPath"`
		ArtifactHash string `json:"artifactHash"`
		PrevHash     string `json:"prevHash"`
	}{
		Seq:          e.Seq,
		Timestamp:    e.Timestamp,
		BatchID:      e.BatchID,
		JobIndex:     e.JobIndex,
		Status:       e.Status,
		ExitCode:     e.ExitCode,
		ArtifactPath: e.ArtifactPath,
		ArtifactHash: e.ArtifactHash,
		PrevHash:     e.PrevHash,
	}
	return json.Marshal(view)
}

// ComputeHash calculates sha256 over canonicalData.
func (e *Entry) ComputeHash() (string, error) {
	data, err := e.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewEntry builds an entry for a job result and computes its hash.
// The signature is attached later, when the entry is appended.
func NewEntry(seq int, batchID string, res core.JobResult, artifactHash, prevHash string) (*Entry, error) {
	e := &Entry{
		Seq:          seq,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		BatchID:      batchID,
		JobIndex:     res.Index,
		Status:       res.Status.String(),
		ExitCode:     res.ExitCode,
		ArtifactPath: res.ArtifactPath,
		ArtifactHash: artifactHash,
		PrevHash:     prevHash,
	}
	h, err := e.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute entry hash: %w", err)
	}
	e.Hash = h
	return e, nil
}
