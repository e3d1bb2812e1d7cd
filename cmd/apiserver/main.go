package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nurulfaradila/pcb-defect-detection/internal/api"
	"github.com/nurulfaradila/pcb-defect-detection/internal/bootstrap"
	"github.com/nurulfaradila/pcb-defect-detection/internal/service"
	"github.com/nurulfaradila/pcb-defect-detection/internal/shared/config"
	"github.com/nurulfaradila/pcb-defect-detection/internal/shared/logging"
	"github.com/nurulfaradila/pcb-defect-detection/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to apiserver config file")
	flag.Parse()

	cfg, err := config.LoadAPIServer(*configPath)
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

	images, err := storage.NewLocalImageStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatal("Failed to open image store", "error", err)
	}

	inspections := service.NewInspectionService(store, taskQueue, images, logger)

	server := api.NewServer(inspections, api.ServerOptions{
		Addr:           cfg.HTTP.Addr,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxUploadBytes: cfg.HTTP.MaxUploadMB << 20,
		UploadsDir:     images.Dir(),
	}, logger)

	go func() {
		logger.Info("Starting API server", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
