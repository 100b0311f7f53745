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


package corpus

import (
	"context"
	"log/slog"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/cache"
	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/ai/openai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/retrieval"
	"github.com/poiesic/corpus/runner"
	"github.com/poiesic/corpus/storage"
	"github.com/poiesic/corpus/storage/postgres"
)

// Library wires the storage backend, embedding provider, ingestion
// pipeline, job runner, and searcher into one handle.
type Library struct {
	backend    *postgres.Backend
	chunkRepo  storage.ChunkRepository
	jobRepo    storage.JobRepository
	provider   ai.Provider
	embedCache *cache.Store
	pipeline   *ingestion.Pipeline
	runner     *runner.Runner
	searcher   *retrieval.Searcher
	logger     *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig       *ai.Config
	cachePath      string
	queryLogging   bool
	pipelineOpts   []ingestion.Option
	runnerOpts     []runner.Option
	searcherOpts   []retrieval.Option
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithEmbeddingCache enables the persistent embedding cache at path.
func WithEmbeddingCache(path string) LibraryOption {
	return func(o *libraryOptions) {
		o.cachePath = path
	}
}

// WithQueryLogging enables SQL query logging on the database connection.
func WithQueryLogging() LibraryOption {
	return func(o *libraryOptions) {
		o.queryLogging = true
	}
}

// WithPipelineOptions passes extra options to the ingestion pipeline.
func WithPipelineOptions(opts ...ingestion.Option) LibraryOption {
	return func(o *libraryOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithRunnerOptions passes extra options to the job runner.
func WithRunnerOptions(opts ...runner.Option) LibraryOption {
	return func(o *libraryOptions) {
		o.runnerOpts = append(o.runnerOpts, opts...)
	}
}

// WithSearcherOptions passes extra options to the searcher.
func WithSearcherOptions(opts ...retrieval.Option) LibraryOption {
	return func(o *libraryOptions) {
		o.searcherOpts = append(o.searcherOpts, opts...)
	}
}

// NewLibrary connects to PostgreSQL and assembles the full stack. The
// database connection is lazy; call Init to create the schema before
// first use.
func NewLibrary(dsn string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	var backendOpts []postgres.Option
	if options.queryLogging {
		backendOpts = append(backendOpts, postgres.WithQueryLogging())
	}
	backend := postgres.Open(dsn, backendOpts...)
	chunkRepo := postgres.NewChunkRepository(backend)
	jobRepo := postgres.NewJobRepository(backend)

	// The stub provider is a constructor-time decision, never ambient.
	var provider ai.Provider
	var err error
	if options.aiConfig.Mock {
		provider = mock.NewProvider(options.aiConfig.Dimensions)
	} else {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	embedder := provider.Embedder()
	var embedCache *cache.Store
	if options.cachePath != "" {
		embedCache, err = cache.Open(options.cachePath)
		if err != nil {
			provider.Close()
			backend.Close()
			return nil, err
		}
		embedder = cache.NewEmbedder(embedder, embedCache, options.aiConfig.Model)
	}

	pipelineOpts := append(
		[]ingestion.Option{ingestion.WithDimensions(options.aiConfig.Dimensions)},
		options.pipelineOpts...)
	pipeline, err := ingestion.NewPipeline(chunkRepo, embedder, pipelineOpts...)
	if err != nil {
		closeAll(embedCache, provider, backend)
		return nil, err
	}

	jobRunner, err := runner.NewRunner(jobRepo, pipeline, options.runnerOpts...)
	if err != nil {
		closeAll(embedCache, provider, backend)
		return nil, err
	}

	searcher, err := retrieval.NewSearcher(chunkRepo, embedder, options.searcherOpts...)
	if err != nil {
		jobRunner.Close()
		closeAll(embedCache, provider, backend)
		return nil, err
	}

	return &Library{
		backend:    backend,
		chunkRepo:  chunkRepo,
		jobRepo:    jobRepo,
		provider:   provider,
		embedCache: embedCache,
		pipeline:   pipeline,
		runner:     jobRunner,
		searcher:   searcher,
		logger:     slog.Default(),
	}, nil
}

func closeAll(embedCache *cache.Store, provider ai.Provider, backend *postgres.Backend) {
	if embedCache != nil {
		embedCache.Close()
	}
	provider.Close()
	backend.Close()
}

// Init creates the database schema. Safe to call repeatedly.
func (l *Library) Init(ctx context.Context) error {
	return l.backend.Init(ctx)
}

// Ingest enqueues an ingestion job and returns immediately.
func (l *Library) Ingest(ctx context.Context, req ingestion.Request) (*core.IngestionJob, error) {
	return l.runner.Enqueue(ctx, req)
}

// IngestSync runs an ingestion job to completion on the calling goroutine.
func (l *Library) IngestSync(ctx context.Context, req ingestion.Request) (*core.IngestionJob, error) {
	return l.runner.RunSync(ctx, req)
}

// Search returns the tenant's k nearest chunks to the query.
func (l *Library) Search(ctx context.Context, tenant core.TenantID, query string, k int) ([]*core.Chunk, error) {
	return l.searcher.Search(ctx, tenant, query, k)
}

// Context returns the chunk texts of a search, in result order.
func (l *Library) Context(ctx context.Context, tenant core.TenantID, query string, k int) ([]string, error) {
	return l.searcher.Context(ctx, tenant, query, k)
}

// Job retrieves an ingestion job by ID.
func (l *Library) Job(ctx context.Context, id core.JobID) (*core.IngestionJob, error) {
	return l.jobRepo.GetJob(ctx, id)
}

// LatestJob retrieves the most recent job for a tenant and source name.
func (l *Library) LatestJob(ctx context.Context, tenant core.TenantID, sourceName string) (*core.IngestionJob, error) {
	return l.jobRepo.LatestJobBySource(ctx, tenant, sourceName)
}

// ChunkRepository exposes the chunk store.
func (l *Library) ChunkRepository() storage.ChunkRepository {
	return l.chunkRepo
}

// JobRepository exposes the job audit store.
func (l *Library) JobRepository() storage.JobRepository {
	return l.jobRepo
}

// Close shuts down the runner, provider, cache, and database connection.
func (l *Library) Close() error {
	if err := l.runner.Close(); err != nil {
		l.logger.Error("error closing job runner", "err", err)
	}
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
	}
	if l.embedCache != nil {
		if err := l.embedCache.Close(); err != nil {
			l.logger.Error("error closing embedding cache", "err", err)
		}
	}
	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing database", "err", err)
		return err
	}
	return nil
}
