package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

// runJobStoreContract exercises the behavior every JobStore backend must
// share; both the memory and the SQL store run it.
func runJobStoreContract(t *testing.T, store core.JobStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		job := newTestJob("job-create", time.Now().UTC())
		require.NoError(t, store.Create(ctx, job))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, job.ID, got.ID)
		require.Equal(t, core.JobStatusPending, got.Status)
		require.Equal(t, "board.jpg", got.OriginalFilename)
		require.Nil(t, got.Result)
		require.Empty(t, got.Error)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		job := newTestJob("job-dup", time.Now().UTC())
		require.NoError(t, store.Create(ctx, job))
		require.ErrorIs(t, store.Create(ctx, job), core.ErrDuplicateJob)
	})

	t.Run("get unknown id", func(t *testing.T) {
		got, err := store.Get(ctx, "no-such-job")
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("terminal success update", func(t *testing.T) {
		job := newTestJob("job-success", time.Now().UTC())
		require.NoError(t, store.Create(ctx, job))

		result := &core.InspectionResult{Defects: []core.Detection{
			{Type: "scratch", Confidence: 0.99, BBox: [4]float64{10, 10, 50, 50}},
		}}
		require.NoError(t, store.UpdateResult(ctx, job.ID, core.JobStatusSuccess, result, ""))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, core.JobStatusSuccess, got.Status)
		require.NotNil(t, got.Result)
		require.Equal(t, result.Defects, got.Result.Defects)
		require.Empty(t, got.Error)
	})

	t.Run("terminal failure update", func(t *testing.T) {
		job := newTestJob("job-failure", time.Now().UTC())
		require.NoError(t, store.Create(ctx, job))

		require.NoError(t, store.UpdateResult(ctx, job.ID, core.JobStatusFailure, nil, "missing model"))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, core.JobStatusFailure, got.Status)
		require.Nil(t, got.Result)
		require.Equal(t, "missing model", got.Error)
	})

	t.Run("update is last write wins", func(t *testing.T) {
		job := newTestJob("job-redelivery", time.Now().UTC())
		require.NoError(t, store.Create(ctx, job))

		result := &core.InspectionResult{Defects: []core.Detection{
			{Type: "spur", Confidence: 0.8, BBox: [4]float64{1, 2, 3, 4}},
		}}
		require.NoError(t, store.UpdateResult(ctx, job.ID, core.JobStatusSuccess, result, ""))
		// Redelivered work item lands a second time with the same outcome.
		require.NoError(t, store.UpdateResult(ctx, job.ID, core.JobStatusSuccess, result, ""))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, core.JobStatusSuccess, got.Status)
		require.Equal(t, result.Defects, got.Result.Defects)
	})

	t.Run("update unknown id is a no-op", func(t *testing.T) {
		result := &core.InspectionResult{Defects: []core.Detection{}}
		require.NoError(t, store.UpdateResult(ctx, "nonexistent-id", core.JobStatusSuccess, result, ""))

		got, err := store.Get(ctx, "nonexistent-id")
		require.NoError(t, err)
		require.Nil(t, got)
	})
}

func runJobStoreListContract(t *testing.T, store core.JobStore) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		job := newTestJob(fmt.Sprintf("job-list-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Create(ctx, job))
	}

	t.Run("newest first", func(t *testing.T) {
		jobs, err := store.List(ctx, core.JobFilter{Limit: 3})
		require.NoError(t, err)
		require.Len(t, jobs, 3)
		require.Equal(t, "job-list-4", jobs[0].ID)
		require.Equal(t, "job-list-3", jobs[1].ID)
		require.Equal(t, "job-list-2", jobs[2].ID)
	})

	t.Run("offset pagination", func(t *testing.T) {
		jobs, err := store.List(ctx, core.JobFilter{Offset: 3, Limit: 10})
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		require.Equal(t, "job-list-1", jobs[0].ID)
		require.Equal(t, "job-list-0", jobs[1].ID)
	})

	t.Run("offset past end", func(t *testing.T) {
		jobs, err := store.List(ctx, core.JobFilter{Offset: 100, Limit: 10})
		require.NoError(t, err)
		require.Empty(t, jobs)
	})
}

func newTestJob(id string, createdAt time.Time) *core.Job {
	return &core.Job{
		ID:               id,
		Filename:         id + ".jpg",
		OriginalFilename: "board.jpg",
		ImagePath:        "/uploads/" + id + ".jpg",
		Status:           core.JobStatusPending,
		CreatedAt:        createdAt,
	}
}
