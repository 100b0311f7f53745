package ingestion

import "errors"

var (
	// ErrChunkRepositoryRequired indicates that no chunk repository was provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")

	// ErrEmbedderRequired indicates that no embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")
)
