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


package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// DefaultK is the number of chunks returned when the caller does not ask
// for a specific count.
const DefaultK = 5

// Searcher answers tenant-scoped semantic queries over ingested chunks.
type Searcher struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	defaultK int
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithDefaultK sets the result count used when a query asks for zero or
// fewer results. Default is DefaultK.
func WithDefaultK(k int) Option {
	return func(s *Searcher) error {
		if k > 0 {
			s.defaultK = k
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:   chunks,
		embedder: embedder,
		defaultK: DefaultK,
		logger:   slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search returns the tenant's k nearest chunks to the query, closest
// first. k <= 0 falls back to the searcher's default.
//
// When the embedding backend is unavailable the search degrades to empty
// results rather than an error, so a flaky backend turns into "nothing
// found" instead of a caller-visible outage. Storage errors propagate.
func (s *Searcher) Search(ctx context.Context, tenant core.TenantID, query string, k int) ([]*core.Chunk, error) {
	return s.SearchWithMonitor(ctx, tenant, query, k, nil)
}

// SearchWithMonitor is Search with observation hooks. A nil monitor is
// replaced with a no-op.
func (s *Searcher) SearchWithMonitor(ctx context.Context, tenant core.TenantID, query string, k int, monitor Monitor) ([]*core.Chunk, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = s.defaultK
	}
	monitor.Start(query)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding unavailable, returning no results",
			"tenant", tenant, "err", err)
		monitor.EmbeddingUnavailable(err)
		monitor.Finish(nil)
		return []*core.Chunk{}, nil
	}
	monitor.AfterQueryEmbedding(vector)

	results, err := s.chunks.SearchNearest(ctx, tenant, vector, k)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search complete", "tenant", tenant, "k", k, "hits", len(results))
	monitor.Finish(results)
	return results, nil
}

// Context returns the chunk texts of a search, in result order. This is
// the retrieval-augmented-generation shape: feed the strings to a
// generation model as grounding context.
func (s *Searcher) Context(ctx context.Context, tenant core.TenantID, query string, k int) ([]string, error) {
	results, err := s.Search(ctx, tenant, query, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(results))
	for i, chunk := range results {
		texts[i] = chunk.Text
	}
	return texts, nil
}
