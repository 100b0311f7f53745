// Package runner executes ingestion jobs asynchronously.
//
// Enqueue records a job in the audit trail and hands it to an ants worker
// pool; RunSync does the same inline for callers that want to wait. A job
// moves enqueued -> started -> completed or failed, gets a bounded number
// of attempts with a fixed backoff, and each attempt runs under its own
// time budget. Errors that retrying cannot fix, an unsupported format or
// an empty document, fail the job on the first attempt.
package runner
