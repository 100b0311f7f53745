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

import "errors"

// Ingestion failure taxonomy
var (
	// ErrUnsupportedType indicates a declared source type outside pdf/txt/docx.
	ErrUnsupportedType = errors.New("unsupported source type")

	// ErrEmptyDocument indicates extraction produced no meaningful text.
	ErrEmptyDocument = errors.New("no text content found in document")

	// ErrExtractionFailure indicates a malformed or unreadable source file.
	ErrExtractionFailure = errors.New("text extraction failed")

	// ErrEmbeddingUnavailable indicates the embedding backend exhausted its retries.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrPersistenceFailure indicates a vector store write failed.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrRetryExhausted indicates a job failed after its retry ceiling.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// Vector validation errors
var (
	// ErrVectorDimension indicates a vector of the wrong length.
	ErrVectorDimension = errors.New("wrong vector dimension")

	// ErrVectorNotFinite indicates a vector containing NaN or Inf values.
	ErrVectorNotFinite = errors.New("vector contains non-finite values")
)

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidJob indicates an IngestionJob failed validation.
	ErrInvalidJob = errors.New("invalid ingestion job")

	// ErrInvalidTransition indicates an illegal job status transition.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("chunk text cannot be empty")

	// ErrEmptySourceName indicates the SourceName field is empty.
	ErrEmptySourceName = errors.New("source name cannot be empty")
)
