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


package mock

import "github.com/poiesic/corpus/ai"

// Provider is a test double for ai.Provider built around the stub embedder.
type Provider struct {
	embedder *Embedder
}

// NewProvider creates a provider whose embedder produces constant stub
// vectors of the given dimension.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use StubEmbedder() to access the concrete type for test assertions.
func NewProvider(dimensions int) ai.Provider {
	return &Provider{
		embedder: NewEmbedder(dimensions),
	}
}

// NewProviderWithEmbedder creates a provider around a preconfigured stub.
// This allows full control over the embedder's behavior.
func NewProviderWithEmbedder(embedder *Embedder) ai.Provider {
	return &Provider{embedder: embedder}
}

// Embedder returns the stub embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op for the stub provider.
func (p *Provider) Close() error {
	return nil
}

// StubEmbedder returns the underlying stub for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *Provider) StubEmbedder() *Embedder {
	return p.embedder
}
