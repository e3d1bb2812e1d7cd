package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
	"github.com/nurulfaradila/pcb-defect-detection/internal/shared/logging"
)

// Pool consumes work items from the task queue, runs the defect detector
// and reports each job's terminal status back to the store.
//
// Failure policy: an inference error is recorded as a FAILURE status and
// the claim is still acked. The item is never handed back to the queue on
// purpose — queue-level redelivery of unacked claims is the only retry
// path in this design. A store write failure on the terminal update is
// logged and the claim is acked anyway; the job then stays PENDING.
type Pool struct {
	queue    core.TaskQueue
	store    core.JobStore
	detector core.DefectDetector

	name              string
	concurrency       int
	visibilityTimeout time.Duration
	janitorInterval   time.Duration

	logger logging.Logger
}

type Options struct {
	// Name identifies this pool as a queue consumer.
	Name string
	// Concurrency is the number of worker goroutines.
	Concurrency int
	// VisibilityTimeout bounds how long a claim may stay unacked before
	// the janitor returns it to the queue. It must exceed the slowest
	// expected inference, or finished work gets redelivered.
	VisibilityTimeout time.Duration
	// JanitorInterval is how often expired claims are requeued.
	JanitorInterval time.Duration
}

func NewPool(queue core.TaskQueue, store core.JobStore, detector core.DefectDetector, opts Options, logger logging.Logger) *Pool {
	if opts.Name == "" {
		opts.Name = "worker"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = 5 * time.Minute
	}
	if opts.JanitorInterval <= 0 {
		opts.JanitorInterval = 30 * time.Second
	}
	return &Pool{
		queue:             queue,
		store:             store,
		detector:          detector,
		name:              opts.Name,
		concurrency:       opts.Concurrency,
		visibilityTimeout: opts.VisibilityTimeout,
		janitorInterval:   opts.JanitorInterval,
		logger:            logger,
	}
}

// Run starts the worker goroutines and the claim janitor, and blocks
// until the context is cancelled and all workers have drained.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		consumer := fmt.Sprintf("%s-%d", p.name, i)
		go func() {
			defer wg.Done()
			p.runClaimLoop(ctx, consumer)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.runJanitorLoop(ctx)
	}()

	wg.Wait()
}

func (p *Pool) runClaimLoop(ctx context.Context, consumer string) {
	const (
		minBackoff = 100 * time.Millisecond
		maxBackoff = 5 * time.Second
	)
	backoff := minBackoff

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claim, err := p.queue.Claim(ctx, consumer, p.visibilityTimeout)
		if err != nil {
			p.logger.Error("Failed to claim work item", "consumer", consumer, "error", err)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		if claim == nil {
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = minBackoff
		p.Process(ctx, claim)
	}
}

// Process runs inference for one claimed work item and applies the
// terminal update. Safe to call more than once for the same task id:
// the store's last-write-wins overwrite keeps redelivery harmless.
func (p *Pool) Process(ctx context.Context, claim *core.QueueClaim) {
	item := claim.Item
	p.logger.Info("Processing work item", "task_id", item.TaskID, "image_path", item.ImagePath)

	result, err := p.detector.Inspect(ctx, item.ImagePath)
	if err != nil {
		p.logger.Error("Inference failed", "task_id", item.TaskID, "error", err)
		if updateErr := p.store.UpdateResult(ctx, item.TaskID, core.JobStatusFailure, nil, err.Error()); updateErr != nil {
			p.logger.Error("Failed to record job failure", "task_id", item.TaskID, "error", updateErr)
		}
	} else {
		if updateErr := p.store.UpdateResult(ctx, item.TaskID, core.JobStatusSuccess, result, ""); updateErr != nil {
			p.logger.Error("Failed to record job result", "task_id", item.TaskID, "error", updateErr)
		} else {
			p.logger.Info("Job completed", "task_id", item.TaskID, "defects", len(result.Defects))
		}
	}

	if err := p.queue.Ack(ctx, claim); err != nil {
		p.logger.Error("Failed to ack claim, item will be redelivered",
			"task_id", item.TaskID,
			"receipt", claim.Receipt,
			"error", err,
		)
	}
}

func (p *Pool) runJanitorLoop(ctx context.Context) {
	ticker := time.NewTicker(p.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			moved, err := p.queue.RequeueExpired(ctx, time.Now().UTC(), 100)
			if err != nil {
				p.logger.Error("Failed to requeue expired claims", "error", err)
				continue
			}
			if moved > 0 {
				p.logger.Warn("Requeued expired claims", "count", moved)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
