package runner

import "errors"

var (
	// ErrJobRepositoryRequired indicates that no job repository was provided.
	ErrJobRepositoryRequired = errors.New("job repository is required")

	// ErrIngesterRequired indicates that no ingester was provided.
	ErrIngesterRequired = errors.New("ingester is required")

	// ErrDuplicateJob indicates that the tenant already has an active job
	// for the same source name.
	ErrDuplicateJob = errors.New("an active job already exists for this source")

	// ErrRunnerClosed indicates that the runner has been closed.
	ErrRunnerClosed = errors.New("runner is closed")
)
