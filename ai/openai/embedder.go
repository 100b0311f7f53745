package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	config   *ai.Config
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for embeddings.
	// Local OpenAI-compatible services accept any token.
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		config:   config,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
// The call is retried up to the configured number of attempts with a fixed
// delay between them. Failures after the last attempt are reported as
// core.ErrEmbeddingUnavailable.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	var vector []float32
	err := ai.Retry(ctx, func() error {
		vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
		if err != nil {
			return err
		}
		if len(vectors) == 0 {
			return fmt.Errorf("backend returned no embedding")
		}
		vector = vectors[0]
		return core.ValidateVector(vector, e.config.Dimensions)
	}, e.config.MaxAttempts, e.config.AttemptDelay)
	if err != nil {
		e.logger.Error("failed to generate embedding", "attempts", e.config.MaxAttempts, "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrEmbeddingUnavailable, err)
	}

	return vector, nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
// A single batch request is attempted first; if the batch fails or the
// backend returns a misaligned result, each text is embedded individually
// so that one call's retry budget never hides another's failure.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		for i, vector := range vectors {
			if verr := core.ValidateVector(vector, e.config.Dimensions); verr != nil {
				e.logger.Warn("batch result failed validation, falling back to single calls",
					"index", i, "err", verr)
				return e.embedEach(ctx, texts)
			}
		}
		return vectors, nil
	}

	if err != nil {
		e.logger.Warn("batch embedding failed, falling back to single calls",
			"count", len(texts), "err", err)
	} else {
		e.logger.Warn("batch embedding misaligned, falling back to single calls",
			"want", len(texts), "got", len(vectors))
	}
	return e.embedEach(ctx, texts)
}

func (e *Embedder) embedEach(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}
