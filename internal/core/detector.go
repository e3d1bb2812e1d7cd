package core

import "context"

// DefectDetector is the inference executor invoked by the worker pool.
// The pool shares one handle across its goroutines, so implementations
// must be safe for concurrent Inspect calls.
type DefectDetector interface {
	// Inspect analyzes the image at the given path and returns the
	// detections found. Any returned error is terminal for the job.
	Inspect(ctx context.Context, imagePath string) (*InspectionResult, error)
}
