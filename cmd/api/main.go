package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"papertrade/internal/app"
	"papertrade/internal/config"
	"papertrade/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Prefix: "api"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()
	logger.Info("health endpoint", "url", "http://localhost"+cfg.HTTPAddr+"/health")

	if err := a.Serve(ctx); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
