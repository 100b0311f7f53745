// Package retrieval answers semantic queries over ingested chunks.
//
// A query is embedded once and matched against the tenant's chunks by
// cosine distance; ranking is whatever the store's nearest neighbor
// order says it is. If the embedding backend is down the searcher
// returns empty results instead of failing, keeping read paths alive
// through backend outages.
package retrieval
