// Package ingestion turns source documents into persisted, embedded
// chunks.
//
// The pipeline runs extract -> normalize -> window -> embed -> persist,
// replacing any chunks the tenant already holds under the same source
// name. Embedding and persistence happen in uniform batches; each batch
// commits in its own transaction, so a mid-document failure keeps the
// batches already written and reports how far it got.
package ingestion
