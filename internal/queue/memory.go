package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

// MemoryQueue is an in-process TaskQueue for tests and single-process
// runs. Claimed items sit in an in-flight table until acked; anything
// past its visibility deadline is handed out again by RequeueExpired.
type MemoryQueue struct {
	mu       sync.Mutex
	items    []core.WorkItem
	inflight map[string]core.QueueClaim
	counter  uint64
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		items:    make([]core.WorkItem, 0, 64),
		inflight: make(map[string]core.QueueClaim),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, item core.WorkItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	return nil
}

func (q *MemoryQueue) Claim(_ context.Context, consumer string, visibilityTimeout time.Duration) (*core.QueueClaim, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if visibilityTimeout <= 0 {
		visibilityTimeout = 30 * time.Second
	}
	if len(q.items) == 0 {
		return nil, nil
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.counter++

	now := time.Now().UTC()
	claim := core.QueueClaim{
		Item:      item,
		Receipt:   fmt.Sprintf("mem:%s:%d", consumer, q.counter),
		ClaimedBy: consumer,
		ClaimedAt: now,
		VisibleAt: now.Add(visibilityTimeout),
	}
	q.inflight[claim.Receipt] = claim
	return &claim, nil
}

func (q *MemoryQueue) Ack(_ context.Context, claim *core.QueueClaim) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, claim.Receipt)
	return nil
}

func (q *MemoryQueue) RequeueExpired(_ context.Context, now time.Time, max int) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	moved := 0
	for receipt, claim := range q.inflight {
		if max > 0 && moved >= max {
			break
		}
		if claim.VisibleAt.After(now) {
			continue
		}
		q.items = append(q.items, claim.Item)
		delete(q.inflight, receipt)
		moved++
	}
	return moved, nil
}

func (q *MemoryQueue) Close() error {
	return nil
}
