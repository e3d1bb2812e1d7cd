package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
	"github.com/nurulfaradila/pcb-defect-detection/internal/shared/logging"
)

// InspectionService is the submission gateway and the read path over the
// job status store. It never touches the inference executor: submission
// only records the job and enqueues a work item, so request latency stays
// decoupled from inference latency.
type InspectionService struct {
	store  core.JobStore
	queue  core.TaskQueue
	images core.ImageStore

	logger logging.Logger
}

func NewInspectionService(store core.JobStore, queue core.TaskQueue, images core.ImageStore, logger logging.Logger) *InspectionService {
	return &InspectionService{
		store:  store,
		queue:  queue,
		images: images,
		logger: logger,
	}
}

// Submit validates the payload, stores the image, creates the PENDING job
// record and enqueues a work item — in that order, so a worker can never
// pick up a job the store has not seen. An enqueue failure surfaces as
// ErrQueueUnavailable and leaves the PENDING record orphaned; the caller
// retries the whole submission under a fresh id.
func (s *InspectionService) Submit(ctx context.Context, image []byte, contentType, originalFilename string) (*core.Job, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q", core.ErrInvalidInput, contentType)
	}

	id := uuid.New().String()
	filename := id + extensionOf(originalFilename)

	path, err := s.images.Save(ctx, filename, image)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	job := &core.Job{
		ID:               id,
		Filename:         filename,
		OriginalFilename: originalFilename,
		ImagePath:        path,
		Status:           core.JobStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	if err := s.queue.Enqueue(ctx, core.WorkItem{TaskID: id, ImagePath: path}); err != nil {
		s.logger.Error("Failed to enqueue work item, job record orphaned",
			"task_id", id,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", core.ErrQueueUnavailable, err)
	}

	s.logger.Info("Job submitted",
		"task_id", id,
		"filename", filename,
		"original_filename", originalFilename,
	)
	return job, nil
}

// GetJob returns the current snapshot of a job, or ErrJobNotFound.
func (s *InspectionService) GetJob(ctx context.Context, id string) (*core.Job, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, core.ErrJobNotFound
	}
	return job, nil
}

// ListJobs returns jobs newest first.
func (s *InspectionService) ListJobs(ctx context.Context, filter core.JobFilter) ([]*core.Job, error) {
	return s.store.List(ctx, filter)
}

// extensionOf keeps the client extension (including the dot) so the stored
// filename stays recognizable; unknown inputs get none.
func extensionOf(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 8 {
		return ""
	}
	return strings.ToLower(ext)
}
