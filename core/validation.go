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
	"fmt"
	"math"
)

// ValidateVector checks that a vector is exactly dim values long and that
// every value is finite. A vector failing this check must never be
// persisted.
func ValidateVector(vector []float32, dim int) error {
	if len(vector) != dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrVectorDimension, dim, len(vector))
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: value at index %d", ErrVectorNotFinite, i)
		}
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - SourceName must not be empty
//   - Vector must be dim values long, all finite
//   - Index and offsets must not be negative, EndOffset >= StartOffset
//
// NOT validated:
//   - ID (0 is valid before insertion)
//   - CreatedAt (populated by the store)
func ValidateChunk(chunk *Chunk, dim int) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}
	if chunk.SourceName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySourceName)
	}
	if chunk.Index < 0 || chunk.StartOffset < 0 || chunk.EndOffset < chunk.StartOffset {
		return fmt.Errorf("%w: bad position (index=%d, start=%d, end=%d)",
			ErrInvalidChunk, chunk.Index, chunk.StartOffset, chunk.EndOffset)
	}
	if err := ValidateVector(chunk.Vector, dim); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}
	return nil
}

// ValidateJob validates an IngestionJob according to domain rules.
func ValidateJob(job *IngestionJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}
	if job.ID == "" {
		return fmt.Errorf("%w: missing job id", ErrInvalidJob)
	}
	if job.SourceName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptySourceName)
	}
	if _, err := ParseSourceType(string(job.SourceType)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	return nil
}
