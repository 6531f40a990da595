package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"coursemarket/internal/backup"
	"coursemarket/internal/cache"
	"coursemarket/internal/config"
	"coursemarket/internal/database"
	"coursemarket/internal/log"
	"coursemarket/internal/queue"
	"coursemarket/internal/repository"
	"coursemarket/internal/storage"
	"coursemarket/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel).With().Str("component", "worker").Logger()

	if !cfg.Redis.Enabled() {
		logger.Fatal().Msg("worker requires redis.addr")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	backend, closeRecords, err := database.OpenRecords(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open record store")
	}
	defer closeRecords()

	var snapshots tasks.SnapshotRunner
	if cfg.Storage.Enabled() {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		snapshots = backup.NewSnapshotter(backend, objectStore, cfg.Security.SnapshotSecret, logger)
	} else {
		logger.Warn().Msg("object storage not configured, snapshots disabled")
	}

	processor := tasks.NewProcessor(
		logger,
		repository.NewPurchaseRepository(backend),
		repository.NewReviewRepository(backend),
		snapshots,
	)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
