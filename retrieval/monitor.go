package retrieval

import "github.com/poiesic/corpus/core"

// Monitor provides hooks to observe a retrieval run.
// Implement this interface to track intermediate steps during search.
type Monitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	EmbeddingUnavailable(err error)
	Finish(results []*core.Chunk)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32) {}
func (n *noopMonitor) EmbeddingUnavailable(_ error)    {}
func (n *noopMonitor) Finish(_ []*core.Chunk)          {}
