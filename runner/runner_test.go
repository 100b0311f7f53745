package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIngester is a function-field test double for the pipeline.
type fakeIngester struct {
	ingestFunc func(ctx context.Context, req ingestion.Request) (*ingestion.Result, error)
	calls      atomic.Int64
}

func (f *fakeIngester) Ingest(ctx context.Context, req ingestion.Request) (*ingestion.Result, error) {
	f.calls.Add(1)
	if f.ingestFunc != nil {
		return f.ingestFunc(ctx, req)
	}
	return &ingestion.Result{ChunksWritten: 3, TotalChunks: 3}, nil
}

func testRequest(source string) ingestion.Request {
	return ingestion.Request{
		TenantID:   1,
		SourceName: source,
		SourcePath: "/tmp/" + source,
		SourceType: core.SourceTypeTXT,
	}
}

func newTestRunner(t *testing.T, store *memory.Store, ingester Ingester, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithBackoff(time.Millisecond), WithTimeBudget(time.Second)}, opts...)
	r, err := NewRunner(store, ingester, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewRunner_RequiresDependencies(t *testing.T) {
	_, err := NewRunner(nil, &fakeIngester{})
	assert.ErrorIs(t, err, ErrJobRepositoryRequired)

	_, err = NewRunner(memory.NewStore(4), nil)
	assert.ErrorIs(t, err, ErrIngesterRequired)
}

func TestRunSync_Completes(t *testing.T) {
	store := memory.NewStore(4)
	r := newTestRunner(t, store, &fakeIngester{})

	job, err := r.RunSync(context.Background(), testRequest("a.txt"))
	require.NoError(t, err)

	assert.Equal(t, core.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.ChunksWritten)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)
	assert.NotEmpty(t, job.ID)
}

func TestRunSync_RetriesThenSucceeds(t *testing.T) {
	store := memory.NewStore(4)
	ingester := &fakeIngester{}
	ingester.ingestFunc = func(ctx context.Context, req ingestion.Request) (*ingestion.Result, error) {
		if ingester.calls.Load() < 3 {
			return nil, fmt.Errorf("%w: flaky backend", core.ErrEmbeddingUnavailable)
		}
		return &ingestion.Result{ChunksWritten: 5, TotalChunks: 5}, nil
	}
	r := newTestRunner(t, store, ingester)

	job, err := r.RunSync(context.Background(), testRequest("a.txt"))
	require.NoError(t, err)

	assert.Equal(t, core.JobStatusCompleted, job.Status)
	assert.Equal(t, 5, job.ChunksWritten)
	assert.Equal(t, int64(3), ingester.calls.Load())
}

func TestRunSync_RetryExhaustion(t *testing.T) {
	store := memory.NewStore(4)
	ingester := &fakeIngester{
		ingestFunc: func(ctx context.Context, req ingestion.Request) (*ingestion.Result, error) {
			return nil, fmt.Errorf("%w: backend down", core.ErrEmbeddingUnavailable)
		},
	}
	r := newTestRunner(t, store, ingester)

	job, err := r.RunSync(context.Background(), testRequest("a.txt"))
	require.NoError(t, err)

	assert.Equal(t, core.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "3 attempts")
	assert.Equal(t, int64(3), ingester.calls.Load())
}

func TestRunSync_TerminalErrorSkipsRetries(t *testing.T) {
	store := memory.NewStore(4)
	ingester := &fakeIngester{
		ingestFunc: func(ctx context.Context, req ingestion.Request) (*ingestion.Result, error) {
			return nil, fmt.Errorf("%w: blank.txt", core.ErrEmptyDocument)
		},
	}
	r := newTestRunner(t, store, ingester)

	job, err := r.RunSync(context.Background(), testRequest("blank.txt"))
	require.NoError(t, err)

	assert.Equal(t, core.JobStatusFailed, job.Status)
	assert.Equal(t, int64(1), ingester.calls.Load(), "empty document must not be retried")
}

func TestEnqueue_RunsAsync(t *testing.T) {
	store := memory.NewStore(4)
	r := newTestRunner(t, store, &fakeIngester{})

	job, err := r.Enqueue(context.Background(), testRequest("a.txt"))
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	assert.Eventually(t, func() bool {
		got, err := store.GetJob(context.Background(), job.ID)
		return err == nil && got.Status == core.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEnqueue_RejectsDuplicateActiveJob(t *testing.T) {
	store := memory.NewStore(4)
	release := make(chan struct{})
	ingester := &fakeIngester{
		ingestFunc: func(ctx context.Context, req ingestion.Request) (*ingestion.Result, error) {
			<-release
			return &ingestion.Result{}, nil
		},
	}
	r := newTestRunner(t, store, ingester, WithPoolSize(2))

	_, err := r.Enqueue(context.Background(), testRequest("a.txt"))
	require.NoError(t, err)

	_, err = r.Enqueue(context.Background(), testRequest("a.txt"))
	assert.ErrorIs(t, err, ErrDuplicateJob)

	// A different source is fine while the first is in flight.
	_, err = r.Enqueue(context.Background(), testRequest("b.txt"))
	assert.NoError(t, err)

	close(release)
}

func TestEnqueue_AllowsReingestAfterCompletion(t *testing.T) {
	store := memory.NewStore(4)
	r := newTestRunner(t, store, &fakeIngester{})

	first, err := r.RunSync(context.Background(), testRequest("a.txt"))
	require.NoError(t, err)
	require.Equal(t, core.JobStatusCompleted, first.Status)

	second, err := r.RunSync(context.Background(), testRequest("a.txt"))
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, second.Status)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestEnqueue_InvalidSourceType(t *testing.T) {
	store := memory.NewStore(4)
	r := newTestRunner(t, store, &fakeIngester{})

	req := testRequest("notes.md")
	req.SourceType = core.SourceType("md")
	_, err := r.Enqueue(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestRunner_ClosedRejectsJobs(t *testing.T) {
	store := memory.NewStore(4)
	r, err := NewRunner(store, &fakeIngester{}, WithBackoff(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Enqueue(context.Background(), testRequest("a.txt"))
	assert.ErrorIs(t, err, ErrRunnerClosed)

	_, err = r.RunSync(context.Background(), testRequest("a.txt"))
	assert.ErrorIs(t, err, ErrRunnerClosed)

	// Closing twice is fine.
	assert.NoError(t, r.Close())
}

func TestRunner_CloseWaitsForAcceptedJob(t *testing.T) {
	store := memory.NewStore(4)
	release := make(chan struct{})
	ingester := &fakeIngester{
		ingestFunc: func(ctx context.Context, req ingestion.Request) (*ingestion.Result, error) {
			<-release
			return &ingestion.Result{ChunksWritten: 1, TotalChunks: 1}, nil
		},
	}
	r := newTestRunner(t, store, ingester)

	job, err := r.Enqueue(context.Background(), testRequest("a.txt"))
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		_ = r.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a job was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the job finished")
	}

	// The job the close waited on must already be terminal.
	got, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, got.Status)
}

func TestRunner_AttemptTimeBudget(t *testing.T) {
	store := memory.NewStore(4)
	ingester := &fakeIngester{
		ingestFunc: func(ctx context.Context, req ingestion.Request) (*ingestion.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	r := newTestRunner(t, store, ingester, WithTimeBudget(20*time.Millisecond), WithMaxAttempts(2))

	job, err := r.RunSync(context.Background(), testRequest("slow.txt"))
	require.NoError(t, err)

	assert.Equal(t, core.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "deadline")
	assert.Equal(t, int64(2), ingester.calls.Load())
}
