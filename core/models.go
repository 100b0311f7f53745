// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// TenantID identifies an isolated tenant. Every persisted entity is
// partitioned by it; no operation may cross tenants.
type TenantID int64

// JobID is the runner-assigned identifier of one ingestion job. It is
// generated at enqueue time and threaded through to execution.
type JobID string

// Fingerprint is a deterministic 64-bit digest of text content, generated
// with BLAKE2b. Identical content always produces the same fingerprint.
type Fingerprint uint64

// FingerprintText computes the Fingerprint of a text span.
func FingerprintText(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// SourceType identifies the declared format of an uploaded document.
type SourceType string

const (
	SourceTypePDF  SourceType = "pdf"
	SourceTypeTXT  SourceType = "txt"
	SourceTypeDOCX SourceType = "docx"
)

// ParseSourceType maps a declared type string (case-insensitive) to a
// SourceType. Returns ErrUnsupportedType for anything outside the three
// supported formats.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourceTypePDF:
		return SourceTypePDF, nil
	case SourceTypeTXT:
		return SourceTypeTXT, nil
	case SourceTypeDOCX:
		return SourceTypeDOCX, nil
	}
	return "", ErrUnsupportedType
}

// Paged reports whether the source format carries page numbers.
func (t SourceType) Paged() bool {
	return t == SourceTypePDF
}

// Chunk is one bounded slice of a source document together with its
// embedding vector and position metadata. Chunks are immutable once
// written; replacing a source's content deletes and re-inserts all of its
// chunks.
type Chunk struct {
	ID          int64
	TenantID    TenantID
	SourceName  string
	SourceType  SourceType
	Index       int // position of the chunk within the document, 0-based
	Text        string
	StartOffset int // rune offset into the whitespace-normalized page text
	EndOffset   int
	Page        int // 1-based; always 1 for unpaged sources
	Vector      []float32
	Metadata    map[string]string // optional extra metadata
	CreatedAt   time.Time
}

// JobStatus is the lifecycle state of an IngestionJob.
type JobStatus string

const (
	JobStatusEnqueued  JobStatus = "enqueued"
	JobStatusStarted   JobStatus = "started"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step. The legal sequence is enqueued -> started -> (completed | failed).
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusEnqueued:
		return next == JobStatusStarted
	case JobStatusStarted:
		return next == JobStatusCompleted || next == JobStatusFailed
	}
	return false
}

// IngestionJob is the durable audit record of one ingestion attempt, from
// enqueue to terminal outcome. It is created at enqueue time and mutated
// only by the job runner executing it.
type IngestionJob struct {
	ID            JobID
	TenantID      TenantID
	SourceName    string
	SourcePath    string
	SourceType    SourceType
	Status        JobStatus
	Error         string
	ChunksWritten int
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}
