package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"stockfeed/config"
	"stockfeed/internal/ingest"
	"stockfeed/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the ingestion pipeline until shutdown
	if err := ingest.Run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("ingestor failed", zap.Error(err))
	}

	log.Info("ingestor stopped")
}
