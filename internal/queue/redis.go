package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

// RedisQueueConfig addresses the broker shared by the apiserver and the
// worker pool.
type RedisQueueConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisQueue is the durable TaskQueue backend. Pending items live in a
// list; a claim moves the payload into a claims hash keyed by receipt and
// records the visibility deadline in a sorted set. RequeueExpired walks
// the sorted set and pushes timed-out payloads back onto the pending
// list, which is what makes delivery at-least-once across worker crashes.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(cfg RedisQueueConfig) *RedisQueue {
	if cfg.Key == "" {
		cfg.Key = "pcb:inspections"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisQueue{client: client, key: cfg.Key}
}

func (q *RedisQueue) pendingKey() string    { return q.key + ":pending" }
func (q *RedisQueue) claimsKey() string     { return q.key + ":claims" }
func (q *RedisQueue) visibilityKey() string { return q.key + ":visibility" }

func (q *RedisQueue) Enqueue(ctx context.Context, item core.WorkItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode work item: %w", err)
	}
	if err := q.client.LPush(ctx, q.pendingKey(), payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue work item: %w", err)
	}
	return nil
}

func (q *RedisQueue) Claim(ctx context.Context, consumer string, visibilityTimeout time.Duration) (*core.QueueClaim, error) {
	if visibilityTimeout <= 0 {
		visibilityTimeout = 30 * time.Second
	}

	payload, err := q.client.RPop(ctx, q.pendingKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop work item: %w", err)
	}

	var item core.WorkItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return nil, fmt.Errorf("failed to decode work item: %w", err)
	}

	now := time.Now().UTC()
	receipt := fmt.Sprintf("%s:%d", consumer, now.UnixNano())
	visibleAt := now.Add(visibilityTimeout)

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.claimsKey(), receipt, payload)
	pipe.ZAdd(ctx, q.visibilityKey(), redis.Z{
		Score:  float64(visibleAt.UnixMilli()),
		Member: receipt,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to record claim: %w", err)
	}

	return &core.QueueClaim{
		Item:      item,
		Receipt:   receipt,
		ClaimedBy: consumer,
		ClaimedAt: now,
		VisibleAt: visibleAt,
	}, nil
}

func (q *RedisQueue) Ack(ctx context.Context, claim *core.QueueClaim) error {
	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, q.claimsKey(), claim.Receipt)
	pipe.ZRem(ctx, q.visibilityKey(), claim.Receipt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack claim %s: %w", claim.Receipt, err)
	}
	return nil
}

func (q *RedisQueue) RequeueExpired(ctx context.Context, now time.Time, max int) (int, error) {
	if max <= 0 {
		max = 100
	}

	receipts, err := q.client.ZRangeByScore(ctx, q.visibilityKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(max),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan expired claims: %w", err)
	}

	moved := 0
	for _, receipt := range receipts {
		payload, err := q.client.HGet(ctx, q.claimsKey(), receipt).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return moved, fmt.Errorf("failed to read claim %s: %w", receipt, err)
		}

		pipe := q.client.TxPipeline()
		if payload != "" {
			pipe.LPush(ctx, q.pendingKey(), payload)
		}
		pipe.HDel(ctx, q.claimsKey(), receipt)
		pipe.ZRem(ctx, q.visibilityKey(), receipt)
		if _, err := pipe.Exec(ctx); err != nil {
			return moved, fmt.Errorf("failed to requeue claim %s: %w", receipt, err)
		}
		if payload != "" {
			moved++
		}
	}
	return moved, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
