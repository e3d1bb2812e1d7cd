package core

import (
	"time"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailure JobStatus = "FAILURE"
)

// Terminal reports whether no further status transition is permitted.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailure
}

// Detection is a single finding produced by inference: a class label, a
// confidence score in [0, 1] and a bounding box (xmin, ymin, xmax, ymax).
type Detection struct {
	Type       string     `json:"type"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

// InspectionResult is the structured payload of a successful inspection.
type InspectionResult struct {
	Defects []Detection `json:"defects"`
}

// Job is a single submitted inspection request tracked through its lifecycle.
// Result is present iff Status is SUCCESS; Error is set iff Status is FAILURE.
type Job struct {
	ID               string
	Filename         string
	OriginalFilename string
	ImagePath        string
	Status           JobStatus
	Result           *InspectionResult
	Error            string
	CreatedAt        time.Time
}

// WorkItem is the unit of work dispatched from the gateway to the worker
// pool. ImagePath is the opaque reference handed to the inference executor.
type WorkItem struct {
	TaskID    string `json:"task_id"`
	ImagePath string `json:"image_path"`
}

// QueueClaim identifies a dequeued work item that has not been acknowledged
// yet. The item stays invisible to other consumers until VisibleAt.
type QueueClaim struct {
	Item      WorkItem
	Receipt   string
	ClaimedBy string
	ClaimedAt time.Time
	VisibleAt time.Time
}

type JobFilter struct {
	Offset int
	Limit  int
}

const (
	// DefaultListLimit is used when a listing request does not specify one.
	DefaultListLimit = 20
	// MaxListLimit caps a single listing page.
	MaxListLimit = 100
)

// Normalize clamps the filter to sane bounds.
func (f JobFilter) Normalize() JobFilter {
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}
