package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

// Runs against a real broker when PCB_TEST_REDIS_ADDR is set, e.g.
// PCB_TEST_REDIS_ADDR=localhost:6379 go test ./internal/queue/...
func newTestRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()
	addr := os.Getenv("PCB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PCB_TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	q := NewRedisQueue(RedisQueueConfig{
		Addr: addr,
		Key:  "pcb:test:" + uuid.New().String(),
	})
	t.Cleanup(func() { q.Close() })
	return q
}

func TestRedisQueueClaimAckRoundTrip(t *testing.T) {
	q := newTestRedisQueue(t)
	ctx := context.Background()

	item := core.WorkItem{TaskID: "t1", ImagePath: "/uploads/t1.jpg"}
	if err := q.Enqueue(ctx, item); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	claim, err := q.Claim(ctx, "w1", time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim == nil || claim.Item != item {
		t.Fatalf("expected claim of %+v, got %+v", item, claim)
	}

	empty, err := q.Claim(ctx, "w2", time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if empty != nil {
		t.Fatalf("claimed item must be invisible, got %+v", empty)
	}

	if err := q.Ack(ctx, claim); err != nil {
		t.Fatalf("ack: %v", err)
	}

	moved, err := q.RequeueExpired(ctx, time.Now().UTC().Add(2*time.Minute), 10)
	if err != nil {
		t.Fatalf("requeue expired: %v", err)
	}
	if moved != 0 {
		t.Fatalf("acked claim must not be requeued, moved %d", moved)
	}
}

func TestRedisQueueRedelivery(t *testing.T) {
	q := newTestRedisQueue(t)
	ctx := context.Background()

	item := core.WorkItem{TaskID: "t-crashed", ImagePath: "/uploads/x.jpg"}
	if err := q.Enqueue(ctx, item); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := q.Claim(ctx, "w1", 10*time.Millisecond); err != nil {
		t.Fatalf("claim: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	moved, err := q.RequeueExpired(ctx, time.Now().UTC(), 10)
	if err != nil {
		t.Fatalf("requeue expired: %v", err)
	}
	if moved != 1 {
		t.Fatalf("expected 1 requeued item, got %d", moved)
	}

	redelivered, err := q.Claim(ctx, "w2", time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if redelivered == nil || redelivered.Item != item {
		t.Fatalf("expected redelivery of %+v, got %+v", item, redelivered)
	}
}
