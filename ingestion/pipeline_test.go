package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

func newTestPipeline(t *testing.T, store *memory.Store, embedder *mock.Embedder, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithDimensions(testDim), WithKeepSource()}, opts...)
	p, err := NewPipeline(store, embedder, opts...)
	require.NoError(t, err)
	return p
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	_, err := NewPipeline(nil, mock.NewEmbedder(testDim))
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(memory.NewStore(testDim), nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestIngest_TxtDocument(t *testing.T) {
	store := memory.NewStore(testDim)
	p := newTestPipeline(t, store, mock.NewEmbedder(testDim))

	path := writeSource(t, "notes.txt", strings.Repeat("some sentence here. ", 100))
	result, err := p.Ingest(context.Background(), Request{
		TenantID:   1,
		SourceName: "notes.txt",
		SourcePath: path,
		SourceType: core.SourceTypeTXT,
	})
	require.NoError(t, err)
	assert.Greater(t, result.ChunksWritten, 1)
	assert.Equal(t, result.TotalChunks, result.ChunksWritten)

	count, err := store.CountBySource(context.Background(), 1, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, result.ChunksWritten, count)
}

func TestIngest_ChunkIndexesAreSequential(t *testing.T) {
	store := memory.NewStore(testDim)
	p := newTestPipeline(t, store, mock.NewEmbedder(testDim))

	path := writeSource(t, "notes.txt", strings.Repeat("alpha beta gamma delta. ", 200))
	result, err := p.Ingest(context.Background(), Request{
		TenantID:   1,
		SourceName: "notes.txt",
		SourcePath: path,
		SourceType: core.SourceTypeTXT,
	})
	require.NoError(t, err)

	stub := mock.NewEmbedder(testDim)
	query, err := stub.EmbedText(context.Background(), "anything")
	require.NoError(t, err)

	chunks, err := store.SearchNearest(context.Background(), 1, query, result.ChunksWritten)
	require.NoError(t, err)
	require.Len(t, chunks, result.ChunksWritten)

	seen := make(map[int]bool)
	for _, c := range chunks {
		assert.False(t, seen[c.Index], "index %d appears twice", c.Index)
		seen[c.Index] = true
		assert.Equal(t, 1, c.Page)
		assert.Equal(t, "1", c.Metadata["page"])
		assert.Equal(t, fmt.Sprintf("%d", c.StartOffset), c.Metadata["start_char"])
	}
	for i := 0; i < result.ChunksWritten; i++ {
		assert.True(t, seen[i], "index %d missing", i)
	}
}

func TestIngest_ReplacesExistingSource(t *testing.T) {
	store := memory.NewStore(testDim)
	p := newTestPipeline(t, store, mock.NewEmbedder(testDim))

	long := writeSource(t, "doc.txt", strings.Repeat("first version of the text. ", 100))
	_, err := p.Ingest(context.Background(), Request{
		TenantID: 1, SourceName: "doc.txt", SourcePath: long, SourceType: core.SourceTypeTXT,
	})
	require.NoError(t, err)

	short := writeSource(t, "doc2.txt", "second version, much shorter.")
	result, err := p.Ingest(context.Background(), Request{
		TenantID: 1, SourceName: "doc.txt", SourcePath: short, SourceType: core.SourceTypeTXT,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunksWritten)

	count, err := store.CountBySource(context.Background(), 1, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "old chunks must be gone after re-ingest")
}

func TestIngest_EmptyDocument(t *testing.T) {
	store := memory.NewStore(testDim)
	p := newTestPipeline(t, store, mock.NewEmbedder(testDim))

	path := writeSource(t, "blank.txt", "   \n\t  ")
	_, err := p.Ingest(context.Background(), Request{
		TenantID: 1, SourceName: "blank.txt", SourcePath: path, SourceType: core.SourceTypeTXT,
	})
	assert.ErrorIs(t, err, core.ErrEmptyDocument)

	count, _ := store.CountBySource(context.Background(), 1, "blank.txt")
	assert.Equal(t, 0, count)
}

func TestIngest_UnsupportedType(t *testing.T) {
	store := memory.NewStore(testDim)
	p := newTestPipeline(t, store, mock.NewEmbedder(testDim))

	path := writeSource(t, "notes.md", "# heading")
	_, err := p.Ingest(context.Background(), Request{
		TenantID: 1, SourceName: "notes.md", SourcePath: path, SourceType: core.SourceType("md"),
	})
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestIngest_EmbeddingFailureBeforeFirstBatch(t *testing.T) {
	store := memory.NewStore(testDim)
	embedder := mock.NewEmbedder(testDim)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("backend down")
	}
	p := newTestPipeline(t, store, embedder)

	path := writeSource(t, "doc.txt", "some content to ingest")
	result, err := p.Ingest(context.Background(), Request{
		TenantID: 1, SourceName: "doc.txt", SourcePath: path, SourceType: core.SourceTypeTXT,
	})
	assert.ErrorIs(t, err, core.ErrEmbeddingUnavailable)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.ChunksWritten)
}

func TestIngest_PartialFailureKeepsEarlierBatches(t *testing.T) {
	store := memory.NewStore(testDim)
	embedder := mock.NewEmbedder(testDim)

	// First batch succeeds, every later batch fails.
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("backend down")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = make([]float32, testDim)
			vectors[i][0] = 1
		}
		return vectors, nil
	}
	p := newTestPipeline(t, store, embedder, WithBatchSize(2))

	path := writeSource(t, "doc.txt", strings.Repeat("enough text for several chunks. ", 60))
	result, err := p.Ingest(context.Background(), Request{
		TenantID: 1, SourceName: "doc.txt", SourcePath: path, SourceType: core.SourceTypeTXT,
	})
	assert.ErrorIs(t, err, core.ErrEmbeddingUnavailable)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.ChunksWritten)
	assert.Greater(t, result.TotalChunks, result.ChunksWritten)

	count, _ := store.CountBySource(context.Background(), 1, "doc.txt")
	assert.Equal(t, 2, count, "first batch stays committed")
}

func TestIngest_MisalignedEmbeddingBatch(t *testing.T) {
	store := memory.NewStore(testDim)
	embedder := mock.NewEmbedder(testDim)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{make([]float32, testDim)}, nil // always one vector
	}
	p := newTestPipeline(t, store, embedder, WithBatchSize(4))

	path := writeSource(t, "doc.txt", strings.Repeat("plenty of text right here. ", 100))
	_, err := p.Ingest(context.Background(), Request{
		TenantID: 1, SourceName: "doc.txt", SourcePath: path, SourceType: core.SourceTypeTXT,
	})
	assert.ErrorIs(t, err, core.ErrEmbeddingUnavailable)
}

func TestIngest_RemovesSourceFileOnSuccess(t *testing.T) {
	store := memory.NewStore(testDim)
	p, err := NewPipeline(store, mock.NewEmbedder(testDim), WithDimensions(testDim))
	require.NoError(t, err)

	path := writeSource(t, "doc.txt", "short document body")
	_, err = p.Ingest(context.Background(), Request{
		TenantID: 1, SourceName: "doc.txt", SourcePath: path, SourceType: core.SourceTypeTXT,
	})
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "source file should be removed after ingest")
}
