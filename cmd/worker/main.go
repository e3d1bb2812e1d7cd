package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nurulfaradila/pcb-defect-detection/internal/bootstrap"
	"github.com/nurulfaradila/pcb-defect-detection/internal/detector"
	"github.com/nurulfaradila/pcb-defect-detection/internal/shared/config"
	"github.com/nurulfaradila/pcb-defect-detection/internal/shared/logging"
	"github.com/nurulfaradila/pcb-defect-detection/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to worker config file")
	flag.Parse()

	cfg, err := config.LoadWorker(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	store, err := bootstrap.OpenJobStore(cfg.Store)
	if err != nil {
		logger.Fatal("Failed to open job store", "error", err)
	}
	defer store.Close()

	taskQueue, err := bootstrap.OpenTaskQueue(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to open task queue", "error", err)
	}
	defer taskQueue.Close()

	modelPath, err := detector.ResolveModelPath(cfg.Detector.ModelDir, cfg.Detector.ModelGlob)
	if err != nil {
		logger.Fatal("Failed to resolve model path", "error", err)
	}
	if modelPath == "" {
		logger.Warn("No model found, detector runs in heuristic mode",
			"model_dir", cfg.Detector.ModelDir,
			"model_glob", cfg.Detector.ModelGlob,
		)
	} else {
		logger.Info("Using model", "model_path", modelPath)
	}

	det, err := detector.NewGoCVDetector(detector.Config{
		ModelPath: modelPath,
		MinArea:   cfg.Detector.MinArea,
	})
	if err != nil {
		logger.Fatal("Failed to initialize detector", "error", err)
	}
	defer det.Close()

	hostname, _ := os.Hostname()
	pool := worker.NewPool(taskQueue, store, det, worker.Options{
		Name:              hostname,
		Concurrency:       cfg.Pool.Concurrency,
		VisibilityTimeout: cfg.Pool.VisibilityTimeout,
		JanitorInterval:   cfg.Pool.JanitorInterval,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down worker pool")
		cancel()
	}()

	logger.Info("Worker pool started", "concurrency", cfg.Pool.Concurrency)
	pool.Run(ctx)
	logger.Info("Worker pool stopped")
}
