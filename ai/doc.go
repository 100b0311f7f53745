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


// Package ai provides abstractions for the embedding services used in Corpus.
//
// This package defines the interfaces for turning text into vectors. It
// follows the dependency inversion principle, allowing the ingestion
// pipeline and retrieval service to depend on abstractions rather than
// concrete implementations.
//
// # Design Principles
//
// The package is designed around two key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Provider: Aggregates embedding services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes three implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic stub and test doubles for unit testing
//   - ai/cache: Caching decorator that skips re-embedding unchanged text
//
// # Constructor Return Type Pattern
//
// This package follows a mixed constructor pattern based on use case:
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewEmbedder) return CONCRETE types to
// enable test assertions and behavior injection through the mock's public
// function fields and methods (EmbedTextFunc, CallCount, Reset).
//
//	stub := mock.NewEmbedder(3072)       // returns *mock.Embedder
//	stub.EmbedTextFunc = func(...)       // behavior injection
//	count := stub.CallCount()            // test assertion
//
// # Usage Example
//
//	// Production usage against an OpenAI-compatible endpoint
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithModel("text-embedding-3-large"),
//	)
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//
//	// Testing usage with the stub
//	stub := mock.NewEmbedder(3072)
//	vector, err := stub.EmbedText(ctx, "test text")
package ai
