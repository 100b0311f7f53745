package mock

import (
	"context"
	"sync/atomic"
)

// DefaultValue is the constant every component of a stub vector is set to.
const DefaultValue = 0.1

// Embedder is a deterministic stub for ai.Embedder.
// By default every text embeds to the same constant vector, so distances
// between stub vectors are all zero and retrieval ordering falls back to
// insertion order. Custom behavior can be injected via function fields.
type Embedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses the constant stub vector.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses the constant stub vector for each text.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dimensions int
	callCount  atomic.Int64
}

// NewEmbedder creates a stub embedder producing vectors of the given
// dimension.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewEmbedder(dimensions int) *Embedder {
	return &Embedder{dimensions: dimensions}
}

// EmbedText returns the constant stub vector.
func (m *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	return m.stubVector(), nil
}

// EmbedTexts returns one constant stub vector per input text.
func (m *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = m.stubVector()
	}
	return vectors, nil
}

// CallCount returns the number of times any method was called.
func (m *Embedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and any injected behavior.
func (m *Embedder) Reset() {
	m.callCount.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

func (m *Embedder) stubVector() []float32 {
	vector := make([]float32, m.dimensions)
	for i := range vector {
		vector[i] = DefaultValue
	}
	return vector
}
