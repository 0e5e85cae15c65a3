package job

import "errors"

var (
	// ErrNotFound is returned when no job record exists for an ID. Expired
	// records and IDs that never existed are indistinguishable to callers.
	ErrNotFound = errors.New("job not found")

	// ErrTerminal is returned when attempting to write a job that already
	// reached a terminal state.
	ErrTerminal = errors.New("job already in terminal state")

	// ErrInvalidURL is returned for submissions that are not well-formed
	// absolute HTTP or HTTPS URLs.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrNoArtifact is returned when the extractor exits successfully but
	// produced no output file.
	ErrNoArtifact = errors.New("no artifact produced")

	// ErrAmbiguousArtifact is returned when the extractor produced more than
	// one output file for a single job.
	ErrAmbiguousArtifact = errors.New("ambiguous artifact")
)

// RetryableError wraps transient errors that should trigger a requeue.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error.
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
