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


package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// Store is an in-memory implementation of both storage.ChunkRepository
// and storage.JobRepository. Intended for tests and disconnected use.
type Store struct {
	mu     sync.RWMutex
	dim    int
	nextID int64
	chunks []*core.Chunk
	jobs   map[core.JobID]*core.IngestionJob
	closed bool
}

var (
	_ storage.ChunkRepository = (*Store)(nil)
	_ storage.JobRepository   = (*Store)(nil)
)

// NewStore creates an empty store accepting vectors of the given dimension.
func NewStore(dim int) *Store {
	return &Store{
		dim:  dim,
		jobs: make(map[core.JobID]*core.IngestionJob),
	}
}

// AppendBatch stores a batch of chunks. All-or-nothing: validation runs
// before anything is appended.
func (s *Store) AppendBatch(ctx context.Context, chunks []*core.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}

	for i, chunk := range chunks {
		if err := core.ValidateChunk(chunk, s.dim); err != nil {
			return fmt.Errorf("%w: chunk %d: %v", storage.ErrInvalidQuery, i, err)
		}
	}
	for _, chunk := range chunks {
		s.nextID++
		stored := *chunk
		stored.ID = s.nextID
		stored.Vector = append([]float32(nil), chunk.Vector...)
		s.chunks = append(s.chunks, &stored)
		chunk.ID = stored.ID
	}
	return nil
}

// DeleteSource removes a tenant's chunks for a source name.
func (s *Store) DeleteSource(ctx context.Context, tenant core.TenantID, sourceName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrStorageClosed
	}

	kept := s.chunks[:0]
	removed := 0
	for _, chunk := range s.chunks {
		if chunk.TenantID == tenant && chunk.SourceName == sourceName {
			removed++
			continue
		}
		kept = append(kept, chunk)
	}
	s.chunks = kept
	return removed, nil
}

// CountBySource counts a tenant's chunks for a source name.
func (s *Store) CountBySource(ctx context.Context, tenant core.TenantID, sourceName string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	for _, chunk := range s.chunks {
		if chunk.TenantID == tenant && chunk.SourceName == sourceName {
			count++
		}
	}
	return count, nil
}

// SearchNearest scans the tenant's chunks and returns up to k ordered by
// ascending cosine distance. Ties keep insertion order.
func (s *Store) SearchNearest(ctx context.Context, tenant core.TenantID, vector []float32, k int) ([]*core.Chunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", storage.ErrInvalidQuery)
	}
	if err := core.ValidateVector(vector, s.dim); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidQuery, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	type scored struct {
		chunk    *core.Chunk
		distance float64
	}
	var candidates []scored
	for _, chunk := range s.chunks {
		if chunk.TenantID != tenant {
			continue
		}
		candidates = append(candidates, scored{chunk: chunk, distance: cosineDistance(vector, chunk.Vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]*core.Chunk, len(candidates))
	for i, c := range candidates {
		copy := *c.chunk
		results[i] = &copy
	}
	return results, nil
}

// PurgeOlderThan removes chunks created before the cutoff across all
// tenants.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrStorageClosed
	}

	kept := s.chunks[:0]
	removed := 0
	for _, chunk := range s.chunks {
		if chunk.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, chunk)
	}
	s.chunks = kept
	return removed, nil
}

// CreateJob stores a new job.
func (s *Store) CreateJob(ctx context.Context, job *core.IngestionJob) error {
	if err := core.ValidateJob(job); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidQuery, err)
	}
	if job.Status != core.JobStatusEnqueued {
		return fmt.Errorf("%w: new jobs must be enqueued, got %q", storage.ErrInvalidQuery, job.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: job %s", storage.ErrDuplicateKey, job.ID)
	}

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id core.JobID) (*core.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", storage.ErrNotFound, id)
	}
	copy := *job
	return &copy, nil
}

// LatestJobBySource returns the most recently created job for a tenant
// and source name.
func (s *Store) LatestJobBySource(ctx context.Context, tenant core.TenantID, sourceName string) (*core.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	var latest *core.IngestionJob
	for _, job := range s.jobs {
		if job.TenantID != tenant || job.SourceName != sourceName {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no jobs for source %q", storage.ErrNotFound, sourceName)
	}
	copy := *latest
	return &copy, nil
}

// ActiveJobExists reports whether the tenant has an enqueued or started
// job for the source.
func (s *Store) ActiveJobExists(ctx context.Context, tenant core.TenantID, sourceName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, storage.ErrStorageClosed
	}

	for _, job := range s.jobs {
		if job.TenantID == tenant && job.SourceName == sourceName && !job.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// MarkStarted transitions a job to JobStatusStarted.
func (s *Store) MarkStarted(ctx context.Context, id core.JobID) error {
	now := time.Now().UTC()
	return s.transition(id, core.JobStatusStarted, func(job *core.IngestionJob) {
		job.StartedAt = &now
	})
}

// MarkCompleted transitions a job to JobStatusCompleted.
func (s *Store) MarkCompleted(ctx context.Context, id core.JobID, chunksWritten int) error {
	now := time.Now().UTC()
	return s.transition(id, core.JobStatusCompleted, func(job *core.IngestionJob) {
		job.CompletedAt = &now
		job.ChunksWritten = chunksWritten
		job.Error = ""
	})
}

// MarkFailed transitions a job to JobStatusFailed.
func (s *Store) MarkFailed(ctx context.Context, id core.JobID, errText string) error {
	now := time.Now().UTC()
	return s.transition(id, core.JobStatusFailed, func(job *core.IngestionJob) {
		job.CompletedAt = &now
		job.Error = errText
	})
}

func (s *Store) transition(id core.JobID, to core.JobStatus, mutate func(*core.IngestionJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: job %s", storage.ErrNotFound, id)
	}
	if !job.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, job.Status, to)
	}
	job.Status = to
	mutate(job)
	return nil
}

// Close marks the store closed. Subsequent calls fail with
// ErrStorageClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// cosineDistance returns 1 - cosine similarity. Zero vectors are treated
// as maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
