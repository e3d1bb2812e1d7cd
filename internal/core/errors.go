package core

import "errors"

var (
	// ErrInvalidInput rejects a submission whose payload is not an image.
	ErrInvalidInput = errors.New("invalid input: payload is not an image")

	// ErrJobNotFound is returned by read operations for an unknown task id.
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob guards Create against id reuse. Ids are generated
	// fresh per submission, so hitting this indicates a bug upstream.
	ErrDuplicateJob = errors.New("job id already exists")

	// ErrQueueUnavailable is returned when a submission created its job
	// record but the work item could not be enqueued. The PENDING record
	// is left behind; the caller retries under a new id.
	ErrQueueUnavailable = errors.New("task queue unavailable")
)
