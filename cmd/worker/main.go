package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"bcsync/internal/config"
	"bcsync/internal/logger"
	"bcsync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize worker
	w := worker.New(cfg, logger)

	// Handle shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go w.Start()

	<-quit
	w.Stop()
}
