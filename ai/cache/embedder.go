package cache

import (
	"context"
	"log/slog"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
)

// Embedder decorates an ai.Embedder with a persistent cache. Texts that
// were embedded before are served from the cache without touching the
// backend. Cache read and write failures are logged and never fail the
// embedding call.
type Embedder struct {
	inner  ai.Embedder
	store  *Store
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder wraps inner with the given cache store. The model name
// namespaces cache entries so vectors from different models never mix.
func NewEmbedder(inner ai.Embedder, store *Store, model string) *Embedder {
	return &Embedder{
		inner:  inner,
		store:  store,
		model:  model,
		logger: slog.Default().With("component", "cached-embedder"),
	}
}

// EmbedText returns the cached vector when present, otherwise delegates
// to the inner embedder and stores the result.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	fp := core.FingerprintText(text)

	if vector, ok := e.lookup(fp); ok {
		return vector, nil
	}

	vector, err := e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	e.save(fp, vector)
	return vector, nil
}

// EmbedTexts serves cache hits directly and batch-embeds only the misses.
// The returned slice is aligned with the input texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	fingerprints := make([]core.Fingerprint, len(texts))

	var missTexts []string
	var missIndexes []int
	for i, text := range texts {
		fingerprints[i] = core.FingerprintText(text)
		if vector, ok := e.lookup(fingerprints[i]); ok {
			vectors[i] = vector
			continue
		}
		missTexts = append(missTexts, text)
		missIndexes = append(missIndexes, i)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	e.logger.Debug("embedding cache misses", "total", len(texts), "misses", len(missTexts))

	fresh, err := e.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIndexes {
		vectors[i] = fresh[j]
		e.save(fingerprints[i], fresh[j])
	}
	return vectors, nil
}

func (e *Embedder) lookup(fp core.Fingerprint) ([]float32, bool) {
	vector, ok, err := e.store.Get(e.model, fp)
	if err != nil {
		e.logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	return vector, ok
}

func (e *Embedder) save(fp core.Fingerprint, vector []float32) {
	if err := e.store.Put(e.model, fp, vector); err != nil {
		e.logger.Warn("cache write failed", "err", err)
	}
}
