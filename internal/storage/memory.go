package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

// MemoryJobStore keeps job records in process memory. It backs unit tests
// and single-process dev runs; split deployments use the SQL store.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*core.Job
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*core.Job),
	}
}

func (s *MemoryJobStore) Create(_ context.Context, job *core.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return core.ErrDuplicateJob
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *MemoryJobStore) UpdateResult(_ context.Context, id string, status core.JobStatus, result *core.InspectionResult, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		// Unknown ids are ignored so a worker racing an uncommitted
		// record never errors out.
		return nil
	}
	job.Status = status
	job.Result = cloneResult(result)
	job.Error = errMsg
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (*core.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, nil
	}
	return cloneJob(job), nil
}

func (s *MemoryJobStore) List(_ context.Context, filter core.JobFilter) ([]*core.Job, error) {
	filter = filter.Normalize()

	s.mu.RLock()
	all := make([]*core.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		all = append(all, cloneJob(job))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := min(filter.Offset, len(all))
	end := min(start+filter.Limit, len(all))
	return all[start:end], nil
}

func (s *MemoryJobStore) Close() error {
	return nil
}

func cloneJob(job *core.Job) *core.Job {
	c := *job
	c.Result = cloneResult(job.Result)
	return &c
}

func cloneResult(result *core.InspectionResult) *core.InspectionResult {
	if result == nil {
		return nil
	}
	c := core.InspectionResult{Defects: make([]core.Detection, len(result.Defects))}
	copy(c.Defects, result.Defects)
	return &c
}
