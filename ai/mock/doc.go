// Package mock provides test double implementations of the ai interfaces.
//
// This package contains stub implementations of ai.Embedder and ai.Provider
// for use in unit tests and disconnected deployments. The stub allows the
// pipeline to run without an embedding backend with controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewProvider(3072)
//	vector, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	stub := mock.NewEmbedder(3072)
//	stub.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("backend down")
//	}
//
//	// Check call counts
//	count := stub.CallCount()
//
// # Default Behavior
//
// Every text embeds to the same constant vector, each component equal to
// DefaultValue. All pairwise distances are therefore zero, which makes
// retrieval ordering deterministic (insertion order) in tests.
package mock
