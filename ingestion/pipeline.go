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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/chunk"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/extract"
	"github.com/poiesic/corpus/storage"
)

// DefaultBatchSize is how many chunks are embedded and persisted per batch.
const DefaultBatchSize = 16

// Request identifies one document to ingest.
type Request struct {
	TenantID   core.TenantID
	SourceName string
	SourcePath string
	SourceType core.SourceType
}

// Result reports what an ingestion run accomplished. On a partial
// failure ChunksWritten counts the batches that committed before the
// error.
type Result struct {
	ChunksWritten int
	TotalChunks   int
}

// Pipeline orchestrates extraction, chunking, embedding, and persistence
// of one document at a time. A Pipeline is safe for concurrent use; each
// Ingest call is independent.
type Pipeline struct {
	chunks       storage.ChunkRepository
	embedder     ai.Embedder
	chunkSize    int
	chunkOverlap int
	batchSize    int
	dimensions   int
	keepSource   bool
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunkSize sets the maximum chunk length in runes.
// Default is chunk.DefaultSize.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		p.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks.
// Default is chunk.DefaultOverlap.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		if overlap < 0 {
			return fmt.Errorf("chunk overlap cannot be negative, got %d", overlap)
		}
		p.chunkOverlap = overlap
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded and persisted per batch.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithDimensions sets the expected embedding dimension.
// Default is 3072.
func WithDimensions(dim int) Option {
	return func(p *Pipeline) error {
		if dim < 1 {
			return fmt.Errorf("dimensions must be positive, got %d", dim)
		}
		p.dimensions = dim
		return nil
	}
}

// WithKeepSource disables deleting the source file after a successful
// ingest.
func WithKeepSource() Option {
	return func(p *Pipeline) error {
		p.keepSource = true
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		chunks:       chunks,
		embedder:     embedder,
		chunkSize:    chunk.DefaultSize,
		chunkOverlap: chunk.DefaultOverlap,
		batchSize:    DefaultBatchSize,
		dimensions:   3072,
		logger:       slog.Default().With("component", "ingestion-pipeline"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Ingest runs the full pipeline for one document: extract, replace the
// source's existing chunks, then chunk, embed, and persist in batches.
//
// Re-ingesting a source name replaces its content entirely. Batches are
// transactional individually; a failure partway leaves earlier batches
// committed and is reported alongside a partial Result.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*Result, error) {
	logger := p.logger.With("tenant", req.TenantID, "source", req.SourceName)
	started := time.Now()

	doc, err := extract.File(req.SourcePath, req.SourceType)
	if err != nil {
		return nil, err
	}
	if doc.Empty() {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptyDocument, req.SourceName)
	}

	pending := p.collect(doc, req)
	if len(pending) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptyDocument, req.SourceName)
	}

	// Replace-by-delete before the first batch so a re-ingest never
	// duplicates rows.
	removed, err := p.chunks.DeleteSource(ctx, req.TenantID, req.SourceName)
	if err != nil {
		return nil, fmt.Errorf("%w: clearing source: %v", core.ErrPersistenceFailure, err)
	}
	if removed > 0 {
		logger.Info("replacing previously ingested source", "removed", removed)
	}

	result := &Result{TotalChunks: len(pending)}
	for start := 0; start < len(pending); start += p.batchSize {
		end := start + p.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := p.processBatch(ctx, pending[start:end]); err != nil {
			logger.Error("ingestion failed mid-document",
				"written", result.ChunksWritten, "total", result.TotalChunks, "err", err)
			return result, err
		}
		result.ChunksWritten += end - start
	}

	logger.Info("document ingested",
		"chunks", result.ChunksWritten,
		"pages", len(doc.Pages),
		"elapsed", time.Since(started))

	if !p.keepSource {
		// Source files are staged uploads; remove on success, best effort.
		if err := os.Remove(req.SourcePath); err != nil {
			logger.Warn("could not remove source file", "path", req.SourcePath, "err", err)
		}
	}
	return result, nil
}

// collect normalizes each page and windows it into chunks with a global,
// page-major index.
func (p *Pipeline) collect(doc *extract.Document, req Request) []*core.Chunk {
	var pending []*core.Chunk
	index := 0
	for _, page := range doc.Pages {
		text := extract.Normalize(page.Text)
		if text == "" {
			continue
		}
		for w := range chunk.Windows(text, p.chunkSize, p.chunkOverlap) {
			pending = append(pending, &core.Chunk{
				TenantID:    req.TenantID,
				SourceName:  req.SourceName,
				SourceType:  req.SourceType,
				Index:       index,
				Text:        w.Text,
				StartOffset: w.Start,
				EndOffset:   w.End,
				Page:        page.Number,
				Metadata: map[string]string{
					"page":       fmt.Sprintf("%d", page.Number),
					"start_char": fmt.Sprintf("%d", w.Start),
					"end_char":   fmt.Sprintf("%d", w.End),
				},
				CreatedAt: time.Now().UTC(),
			})
			index++
		}
	}
	return pending
}

// processBatch embeds one batch of chunks and persists it transactionally.
func (p *Pipeline) processBatch(ctx context.Context, batch []*core.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: got %d vectors for %d chunks",
			core.ErrEmbeddingUnavailable, len(vectors), len(batch))
	}
	for i, vector := range vectors {
		if err := core.ValidateVector(vector, p.dimensions); err != nil {
			return fmt.Errorf("%w: chunk %d: %v", core.ErrEmbeddingUnavailable, batch[i].Index, err)
		}
		batch[i].Vector = vector
	}

	if err := p.chunks.AppendBatch(ctx, batch); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistenceFailure, err)
	}
	return nil
}
