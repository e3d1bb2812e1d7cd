package core

import (
	"context"
	"time"
)

// TaskQueue is the at-least-once delivery channel between submission and
// execution. Consumers compete: a claimed item is invisible to other
// consumers until it is acked or its visibility timeout lapses, at which
// point it becomes deliverable again (redelivery after a consumer crash).
// No ordering is guaranteed across distinct items.
type TaskQueue interface {
	Enqueue(ctx context.Context, item WorkItem) error

	// Claim pops at most one pending item for the named consumer.
	// Returns (nil, nil) when the queue is empty.
	Claim(ctx context.Context, consumer string, visibilityTimeout time.Duration) (*QueueClaim, error)

	// Ack removes a claimed item permanently.
	Ack(ctx context.Context, claim *QueueClaim) error

	// RequeueExpired moves claims whose visibility deadline passed back
	// to the pending queue and reports how many were moved.
	RequeueExpired(ctx context.Context, now time.Time, max int) (int, error)

	Close() error
}
