package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/uptrace/bun"
)

// JobRepository implements storage.JobRepository on PostgreSQL.
type JobRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a job repository on the given backend.
func NewJobRepository(backend *Backend) *JobRepository {
	return &JobRepository{
		backend: backend,
		logger:  slog.Default().With("component", "job-repository"),
	}
}

// CreateJob persists a new job row.
func (r *JobRepository) CreateJob(ctx context.Context, job *core.IngestionJob) error {
	if err := core.ValidateJob(job); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidQuery, err)
	}
	if job.Status != core.JobStatusEnqueued {
		return fmt.Errorf("%w: new jobs must be enqueued, got %q", storage.ErrInvalidQuery, job.Status)
	}

	_, err := r.backend.db.NewInsert().Model(jobToRow(job)).Exec(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("job created", "job", job.ID, "tenant", job.TenantID, "source", job.SourceName)
	return nil
}

// GetJob retrieves a job by ID.
func (r *JobRepository) GetJob(ctx context.Context, id core.JobID) (*core.IngestionJob, error) {
	row := new(jobRow)
	err := r.backend.db.NewSelect().
		Model(row).
		Where("id = ?", string(id)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rowToJob(row), nil
}

// LatestJobBySource returns the most recently created job for a tenant
// and source name.
func (r *JobRepository) LatestJobBySource(ctx context.Context, tenant core.TenantID, sourceName string) (*core.IngestionJob, error) {
	row := new(jobRow)
	err := r.backend.db.NewSelect().
		Model(row).
		Where("tenant_id = ?", int64(tenant)).
		Where("source_name = ?", sourceName).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no jobs for source %q", storage.ErrNotFound, sourceName)
	}
	if err != nil {
		return nil, err
	}
	return rowToJob(row), nil
}

// ActiveJobExists reports whether the tenant has an enqueued or started
// job for the source.
func (r *JobRepository) ActiveJobExists(ctx context.Context, tenant core.TenantID, sourceName string) (bool, error) {
	return r.backend.db.NewSelect().
		Model((*jobRow)(nil)).
		Where("tenant_id = ?", int64(tenant)).
		Where("source_name = ?", sourceName).
		Where("status IN (?, ?)", string(core.JobStatusEnqueued), string(core.JobStatusStarted)).
		Exists(ctx)
}

// MarkStarted transitions a job to JobStatusStarted.
func (r *JobRepository) MarkStarted(ctx context.Context, id core.JobID) error {
	now := time.Now().UTC()
	return r.transition(ctx, id, core.JobStatusStarted, func(row *jobRow) {
		row.StartedAt = &now
	})
}

// MarkCompleted transitions a job to JobStatusCompleted.
func (r *JobRepository) MarkCompleted(ctx context.Context, id core.JobID, chunksWritten int) error {
	now := time.Now().UTC()
	return r.transition(ctx, id, core.JobStatusCompleted, func(row *jobRow) {
		row.CompletedAt = &now
		row.ChunksWritten = chunksWritten
		row.Error = ""
	})
}

// MarkFailed transitions a job to JobStatusFailed.
func (r *JobRepository) MarkFailed(ctx context.Context, id core.JobID, errText string) error {
	now := time.Now().UTC()
	return r.transition(ctx, id, core.JobStatusFailed, func(row *jobRow) {
		row.CompletedAt = &now
		row.Error = errText
	})
}

// transition loads the job, checks the status transition, applies the
// mutation, and writes the row back, all in one transaction.
func (r *JobRepository) transition(ctx context.Context, id core.JobID, to core.JobStatus, mutate func(*jobRow)) error {
	return r.backend.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row := new(jobRow)
		err := tx.NewSelect().
			Model(row).
			Where("id = ?", string(id)).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: job %s", storage.ErrNotFound, id)
		}
		if err != nil {
			return err
		}

		from := core.JobStatus(row.Status)
		if !from.CanTransition(to) {
			return fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, from, to)
		}

		row.Status = string(to)
		mutate(row)

		_, err = tx.NewUpdate().Model(row).WherePK().Exec(ctx)
		return err
	})
}

// Close closes the underlying backend.
func (r *JobRepository) Close() error {
	return r.backend.Close()
}
