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


package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/storage"
)

const (
	// DefaultMaxAttempts is how many times a job is tried before it fails
	// for good.
	DefaultMaxAttempts = 3
	// DefaultBackoff is the fixed pause between job attempts.
	DefaultBackoff = 60 * time.Second
	// DefaultTimeBudget bounds a single job attempt.
	DefaultTimeBudget = time.Hour
)

// Ingester runs the ingestion pipeline for one document.
// *ingestion.Pipeline satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, req ingestion.Request) (*ingestion.Result, error)
}

// Runner executes ingestion jobs asynchronously on a worker pool, keeping
// the job audit trail current as each job moves through its lifecycle.
type Runner struct {
	jobs        storage.JobRepository
	ingester    Ingester
	pool        *ants.Pool
	maxAttempts int
	backoff     time.Duration
	timeBudget  time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Runner.
type Option func(*Runner) error

// WithPoolSize sets the worker pool size for concurrent jobs.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Runner) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithMaxAttempts sets how many times a job is tried.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(r *Runner) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be positive, got %d", n)
		}
		r.maxAttempts = n
		return nil
	}
}

// WithBackoff sets the fixed pause between job attempts.
// Default is DefaultBackoff.
func WithBackoff(d time.Duration) Option {
	return func(r *Runner) error {
		if d < 0 {
			return fmt.Errorf("backoff cannot be negative, got %v", d)
		}
		r.backoff = d
		return nil
	}
}

// WithTimeBudget bounds each individual job attempt.
// Default is DefaultTimeBudget.
func WithTimeBudget(d time.Duration) Option {
	return func(r *Runner) error {
		if d <= 0 {
			return fmt.Errorf("time budget must be positive, got %v", d)
		}
		r.timeBudget = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a job runner.
func NewRunner(jobs storage.JobRepository, ingester Ingester, opts ...Option) (*Runner, error) {
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if ingester == nil {
		return nil, ErrIngesterRequired
	}

	r := &Runner{
		jobs:        jobs,
		ingester:    ingester,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		timeBudget:  DefaultTimeBudget,
		logger:      slog.Default().With("component", "job-runner"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			if r.pool != nil {
				r.pool.Release()
			}
			return nil, err
		}
	}
	if r.pool == nil {
		size := runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return nil, err
		}
		r.pool = pool
	}
	return r, nil
}

// Enqueue records a new job and submits it to the worker pool. A tenant
// can hold at most one active job per source name; a second enqueue for
// the same source while the first is in flight fails with ErrDuplicateJob.
//
// If the pool cannot accept the job it runs inline instead, so an
// accepted job is always executed.
func (r *Runner) Enqueue(ctx context.Context, req ingestion.Request) (*core.IngestionJob, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	job, err := r.createJob(ctx, req)
	if err != nil {
		r.wg.Done()
		return nil, err
	}

	if err := r.pool.Submit(func() {
		defer r.wg.Done()
		r.execute(job)
	}); err != nil {
		r.logger.Warn("pool rejected job, running inline", "job", job.ID, "err", err)
		func() {
			defer r.wg.Done()
			r.execute(job)
		}()
	}
	return job, nil
}

// RunSync records a new job and executes it on the calling goroutine,
// returning once the job reaches a terminal state.
func (r *Runner) RunSync(ctx context.Context, req ingestion.Request) (*core.IngestionJob, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.wg.Done()

	job, err := r.createJob(ctx, req)
	if err != nil {
		return nil, err
	}
	r.execute(job)
	return r.jobs.GetJob(ctx, job.ID)
}

// acquire reserves a slot for one job. The closed check and the wait
// group increment happen under the mutex so that Close, once it starts
// waiting, can never miss a job accepted concurrently.
func (r *Runner) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRunnerClosed
	}
	r.wg.Add(1)
	return nil
}

func (r *Runner) createJob(ctx context.Context, req ingestion.Request) (*core.IngestionJob, error) {
	if _, err := core.ParseSourceType(string(req.SourceType)); err != nil {
		return nil, err
	}

	active, err := r.jobs.ActiveJobExists(ctx, req.TenantID, req.SourceName)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("%w: tenant %d, source %q", ErrDuplicateJob, req.TenantID, req.SourceName)
	}

	job := &core.IngestionJob{
		ID:         core.JobID(uuid.NewString()),
		TenantID:   req.TenantID,
		SourceName: req.SourceName,
		SourcePath: req.SourcePath,
		SourceType: req.SourceType,
		Status:     core.JobStatusEnqueued,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	r.logger.Info("job enqueued", "job", job.ID, "tenant", job.TenantID, "source", job.SourceName)
	return job, nil
}

// execute drives one job to a terminal state. Each attempt gets its own
// time budget; transient failures are retried with a fixed backoff, while
// terminal errors fail the job immediately.
func (r *Runner) execute(job *core.IngestionJob) {
	logger := r.logger.With("job", job.ID, "tenant", job.TenantID, "source", job.SourceName)
	ctx := context.Background()

	if err := r.jobs.MarkStarted(ctx, job.ID); err != nil {
		logger.Error("could not mark job started", "err", err)
		return
	}

	req := ingestion.Request{
		TenantID:   job.TenantID,
		SourceName: job.SourceName,
		SourcePath: job.SourcePath,
		SourceType: job.SourceType,
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeBudget)
		result, err := r.ingester.Ingest(attemptCtx, req)
		cancel()

		if err == nil {
			if mErr := r.jobs.MarkCompleted(ctx, job.ID, result.ChunksWritten); mErr != nil {
				logger.Error("could not mark job completed", "err", mErr)
				return
			}
			logger.Info("job completed", "attempt", attempt, "chunks", result.ChunksWritten)
			return
		}
		lastErr = err

		if terminal(err) {
			logger.Warn("job failed terminally", "attempt", attempt, "err", err)
			break
		}
		logger.Warn("job attempt failed", "attempt", attempt, "maxAttempts", r.maxAttempts, "err", err)

		if attempt < r.maxAttempts {
			time.Sleep(r.backoff)
		}
	}

	failure := lastErr
	if !terminal(lastErr) {
		failure = fmt.Errorf("%w after %d attempts: %v", core.ErrRetryExhausted, r.maxAttempts, lastErr)
	}
	if err := r.jobs.MarkFailed(ctx, job.ID, failure.Error()); err != nil {
		logger.Error("could not mark job failed", "err", err)
	}
}

// terminal reports whether retrying the error could never help.
func terminal(err error) bool {
	return errors.Is(err, core.ErrUnsupportedType) || errors.Is(err, core.ErrEmptyDocument)
}

// Close stops accepting jobs, waits for in-flight jobs to finish, and
// releases the worker pool.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
	r.pool.Release()
	return nil
}
