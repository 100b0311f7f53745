// Package postgres implements the storage interfaces on PostgreSQL.
//
// Chunks live in the chunks table with a pgvector embedding column and an
// ivfflat cosine index; nearest neighbor queries use the <=> operator.
// The ingestion job audit trail lives in ingestion_jobs. Both
// repositories share one bun connection created by Open; call Init once
// to create the extension, tables, and indexes.
package postgres
