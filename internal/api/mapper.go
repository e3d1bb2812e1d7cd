package api

import (
	"time"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

func toSubmitResponse(job *core.Job) SubmitResponse {
	return SubmitResponse{
		TaskID:   job.ID,
		Status:   string(job.Status),
		ImageURL: "/uploads/" + job.Filename,
	}
}

func toJobResponse(job *core.Job) JobResponse {
	resp := JobResponse{
		TaskID:           job.ID,
		Status:           string(job.Status),
		Filename:         job.Filename,
		OriginalFilename: job.OriginalFilename,
		CreatedAt:        job.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if job.Status == core.JobStatusSuccess {
		resp.Result = job.Result
	}
	if job.Status == core.JobStatusFailure {
		resp.Error = job.Error
	}
	return resp
}

func toJobResponses(jobs []*core.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}
	return out
}
