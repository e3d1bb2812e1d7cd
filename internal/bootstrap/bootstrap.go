package bootstrap

import (
	"fmt"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
	"github.com/nurulfaradila/pcb-defect-detection/internal/queue"
	"github.com/nurulfaradila/pcb-defect-detection/internal/shared/config"
	"github.com/nurulfaradila/pcb-defect-detection/internal/storage"
)

// OpenJobStore builds the configured job status store. The apiserver and
// the worker pool must address the same logical store instance.
func OpenJobStore(cfg config.StoreConfig) (core.JobStore, error) {
	switch cfg.Driver {
	case "memory":
		return storage.NewMemoryJobStore(), nil
	case "postgres", "sqlite":
		return storage.NewSQLJobStore(cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// OpenTaskQueue builds the configured task queue backend.
func OpenTaskQueue(cfg config.QueueConfig) (core.TaskQueue, error) {
	switch cfg.Backend {
	case "memory":
		return queue.NewMemoryQueue(), nil
	case "redis":
		return queue.NewRedisQueue(queue.RedisQueueConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Key:      cfg.Key,
		}), nil
	default:
		return nil, fmt.Errorf("unknown queue backend: %s", cfg.Backend)
	}
}
