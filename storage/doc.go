// Package storage defines the persistence interfaces for chunks and
// ingestion jobs.
//
// Two implementations exist:
//
//   - storage/postgres: production backend on PostgreSQL with pgvector
//   - storage/memory: in-memory backend for tests and disconnected use
//
// Both repositories of a backend share one connection; closing either
// closes the backend.
package storage
