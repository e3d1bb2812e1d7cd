package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
	"github.com/nurulfaradila/pcb-defect-detection/internal/queue"
	"github.com/nurulfaradila/pcb-defect-detection/internal/storage"
)

// mockLogger is a no-op logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any) {}
func (m *mockLogger) Info(msg string, args ...any)  {}
func (m *mockLogger) Warn(msg string, args ...any)  {}
func (m *mockLogger) Error(msg string, args ...any) {}
func (m *mockLogger) Fatal(msg string, args ...any) {}

func newTestService(t *testing.T) (*InspectionService, *storage.MemoryJobStore, *queue.MemoryQueue) {
	t.Helper()
	store := storage.NewMemoryJobStore()
	q := queue.NewMemoryQueue()
	images, err := storage.NewLocalImageStore(t.TempDir())
	require.NoError(t, err)
	return NewInspectionService(store, q, images, &mockLogger{}), store, q
}

func TestSubmitCreatesPendingJobAndEnqueues(t *testing.T) {
	svc, store, q := newTestService(t)
	ctx := context.Background()

	job, err := svc.Submit(ctx, []byte("image-bytes"), "image/jpeg", "board_01.JPG")
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	require.Equal(t, core.JobStatusPending, job.Status)
	require.Equal(t, job.ID+".jpg", job.Filename)
	require.Equal(t, "board_01.JPG", job.OriginalFilename)

	// The record exists in the store.
	stored, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, core.JobStatusPending, stored.Status)

	// The image bytes landed on disk.
	data, err := os.ReadFile(job.ImagePath)
	require.NoError(t, err)
	require.Equal(t, []byte("image-bytes"), data)

	// Exactly one work item was enqueued, referencing the stored image.
	claim, err := q.Claim(ctx, "test", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, claim)
	require.Equal(t, core.WorkItem{TaskID: job.ID, ImagePath: job.ImagePath}, claim.Item)

	empty, err := q.Claim(ctx, "test", time.Minute)
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestSubmitRejectsNonImagePayload(t *testing.T) {
	svc, store, q := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, []byte("%PDF-1.4"), "application/pdf", "report.pdf")
	require.ErrorIs(t, err, core.ErrInvalidInput)

	// Nothing was created or enqueued.
	jobs, err := store.List(ctx, core.JobFilter{})
	require.NoError(t, err)
	require.Empty(t, jobs)

	claim, err := q.Claim(ctx, "test", time.Minute)
	require.NoError(t, err)
	require.Nil(t, claim)
}

func TestSubmitUniqueIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		job, err := svc.Submit(ctx, []byte("x"), "image/png", "b.png")
		require.NoError(t, err)
		require.False(t, seen[job.ID], "duplicate id %s", job.ID)
		seen[job.ID] = true
	}
}

type failingQueue struct{}

func (q *failingQueue) Enqueue(context.Context, core.WorkItem) error {
	return errors.New("broker connection refused")
}

func (q *failingQueue) Claim(context.Context, string, time.Duration) (*core.QueueClaim, error) {
	return nil, nil
}

func (q *failingQueue) Ack(context.Context, *core.QueueClaim) error { return nil }

func (q *failingQueue) RequeueExpired(context.Context, time.Time, int) (int, error) {
	return 0, nil
}

func (q *failingQueue) Close() error { return nil }

func TestSubmitEnqueueFailureLeavesOrphanedRecord(t *testing.T) {
	store := storage.NewMemoryJobStore()
	images, err := storage.NewLocalImageStore(t.TempDir())
	require.NoError(t, err)
	svc := NewInspectionService(store, &failingQueue{}, images, &mockLogger{})
	ctx := context.Background()

	_, err = svc.Submit(ctx, []byte("x"), "image/jpeg", "board.jpg")
	require.ErrorIs(t, err, core.ErrQueueUnavailable)

	// The PENDING record stays behind; only the caller-facing error
	// signals that resubmission is needed.
	jobs, listErr := store.List(ctx, core.JobFilter{})
	require.NoError(t, listErr)
	require.Len(t, jobs, 1)
	require.Equal(t, core.JobStatusPending, jobs[0].Status)
}

func TestGetJobNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetJob(context.Background(), "nonexistent-id")
	require.ErrorIs(t, err, core.ErrJobNotFound)
}

func TestExtensionOf(t *testing.T) {
	require.Equal(t, ".jpg", extensionOf("board.jpg"))
	require.Equal(t, ".png", extensionOf("BOARD.PNG"))
	require.Equal(t, "", extensionOf("no-extension"))
	require.Equal(t, "", extensionOf("weird"+strings.Repeat(".x", 1)+".longextension"))
}
