package api

import "github.com/nurulfaradila/pcb-defect-detection/internal/core"

// SubmitResponse is returned by POST /predict. Status is always PENDING:
// the caller polls GET /status/{task_id} for the outcome.
type SubmitResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	ImageURL string `json:"image_url"`
}

// JobResponse is the per-job snapshot returned by GET /status/{task_id}
// and, element-wise, GET /history. Result is present only on SUCCESS and
// Error only on FAILURE.
type JobResponse struct {
	TaskID           string                 `json:"task_id"`
	Status           string                 `json:"status"`
	Filename         string                 `json:"filename"`
	OriginalFilename string                 `json:"original_filename"`
	CreatedAt        string                 `json:"created_at"`
	Result           *core.InspectionResult `json:"result,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

// ErrorResponse carries client-facing failures.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
