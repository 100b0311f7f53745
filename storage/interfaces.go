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


package storage

import (
	"context"
	"time"

	"github.com/poiesic/corpus/core"
)

// ChunkRepository provides operations for managing embedded chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AppendBatch persists a batch of chunks in a single transaction.
	// Either every chunk in the batch is written or none is. Earlier
	// batches of the same source are not affected by a failure.
	AppendBatch(ctx context.Context, chunks []*core.Chunk) error

	// DeleteSource removes every chunk a tenant holds for a source name.
	// Returns the number of chunks removed. Deleting a source that has no
	// chunks is not an error.
	DeleteSource(ctx context.Context, tenant core.TenantID, sourceName string) (int, error)

	// CountBySource returns the number of chunks a tenant holds for a
	// source name.
	CountBySource(ctx context.Context, tenant core.TenantID, sourceName string) (int, error)

	// SearchNearest returns up to k chunks of the tenant ordered by
	// ascending cosine distance to the query vector. Tenants never see
	// each other's chunks.
	SearchNearest(ctx context.Context, tenant core.TenantID, vector []float32, k int) ([]*core.Chunk, error)

	// PurgeOlderThan removes every chunk created before the cutoff,
	// across all tenants. Returns the number of chunks removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// JobRepository provides operations for the ingestion job audit trail.
// Implementations must be thread-safe and support concurrent access.
type JobRepository interface {
	// CreateJob persists a new job row. The job must validate and must be
	// in JobStatusEnqueued.
	CreateJob(ctx context.Context, job *core.IngestionJob) error

	// GetJob retrieves a job by ID. Returns ErrNotFound if it doesn't exist.
	GetJob(ctx context.Context, id core.JobID) (*core.IngestionJob, error)

	// LatestJobBySource returns the most recently created job for a
	// tenant and source name. Returns ErrNotFound when the source was
	// never ingested.
	LatestJobBySource(ctx context.Context, tenant core.TenantID, sourceName string) (*core.IngestionJob, error)

	// ActiveJobExists reports whether the tenant has a job for the source
	// that is still enqueued or started.
	ActiveJobExists(ctx context.Context, tenant core.TenantID, sourceName string) (bool, error)

	// MarkStarted transitions a job to JobStatusStarted and stamps StartedAt.
	MarkStarted(ctx context.Context, id core.JobID) error

	// MarkCompleted transitions a job to JobStatusCompleted, stamps
	// CompletedAt, and records how many chunks were written.
	MarkCompleted(ctx context.Context, id core.JobID, chunksWritten int) error

	// MarkFailed transitions a job to JobStatusFailed, stamps CompletedAt,
	// and records the failure message.
	MarkFailed(ctx context.Context, id core.JobID, errText string) error

	// Close closes the storage backend and releases resources.
	Close() error
}
