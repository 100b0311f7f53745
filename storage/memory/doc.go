// Package memory provides an in-memory storage backend.
//
// The Store implements both repository interfaces with a brute-force
// cosine scan for nearest neighbor search. It exists for tests and for
// running the pipeline without a database; nothing survives process exit.
package memory
