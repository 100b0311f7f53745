// Package cache provides a persistent embedding cache.
//
// Embedding the same text twice is pure waste: the backend call dominates
// ingestion time and the result is deterministic for a given model. This
// package stores vectors in BadgerDB keyed by model name and a 64-bit
// fingerprint of the text, and exposes an ai.Embedder decorator that
// consults the cache before the backend.
//
// Cache failures are deliberately soft. A read or write error degrades to
// a miss or a skipped store; it never fails the embedding call.
package cache
