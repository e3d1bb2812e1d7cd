package core

import "context"

// JobStore is the durable record of every job and its lifecycle state.
// It is the single source of truth shared by the gateway, the worker pool
// and the query API.
type JobStore interface {
	// Create persists a new PENDING job. Returns ErrDuplicateJob if the
	// id is already taken.
	Create(ctx context.Context, job *Job) error

	// UpdateResult atomically overwrites the job's status together with
	// its payload (result on SUCCESS, error message on FAILURE).
	// Updates are last-write-wins so queue redelivery stays harmless.
	// An unknown id is a silent no-op: workers may race records that
	// were never committed and must not crash on them.
	UpdateResult(ctx context.Context, id string, status JobStatus, result *InspectionResult, errMsg string) error

	// Get returns (nil, nil) when the id is unknown.
	Get(ctx context.Context, id string) (*Job, error)

	// List returns jobs ordered by creation time, newest first.
	List(ctx context.Context, filter JobFilter) ([]*Job, error)

	Close() error
}

// ImageStore persists submitted image bytes and hands back an opaque
// reference that the inference executor can read from.
type ImageStore interface {
	// Save stores data under the given filename and returns its path.
	Save(ctx context.Context, filename string, data []byte) (string, error)

	// Open resolves a stored filename to an absolute path.
	Path(filename string) string
}
