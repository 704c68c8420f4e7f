// Package main is the entry point for the pharmaledger background worker:
// outbox relay, inventory alert sweep and housekeeping.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pharmaledger/internal/app"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/infrastructure/lock"
	"pharmaledger/internal/infrastructure/messaging/pubsub"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/pkg/logger"
)

const (
	outboxBatchSize    = 100
	housekeepingPeriod = time.Hour
	publishedRetention = 7 * 24 * time.Hour
)

func main() {
	if err := app.LoadDotEnv(".env"); err != nil {
		fmt.Printf("failed to read .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.StorageBackend != app.BackendPostgres {
		log.Fatalw("worker requires the postgres backend", "storage", cfg.StorageBackend)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting pharmaledger worker")

	backend, err := app.OpenBackend(ctx, cfg, app.OpenOptions{})
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer backend.Close()

	// --- Outbox delivery ---
	var handler postgres.OutboxHandler = postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		logger.Info(ctx, "outbox event",
			"event_type", msg.EventType,
			"aggregate_type", msg.AggregateType,
			"aggregate_id", msg.AggregateID,
		)
		return nil
	})
	if cfg.PubSubProjectID != "" {
		client, topic, err := pubsub.OpenTopic(ctx, cfg.PubSubProjectID, cfg.PubSubTopic)
		if err != nil {
			log.Fatalw("failed to open pubsub topic", "error", err)
		}
		defer func() { _ = client.Close() }()
		defer topic.Stop()
		handler = pubsub.NewSink(topic)
		log.Infow("relaying outbox to pubsub", "project", cfg.PubSubProjectID, "topic", cfg.PubSubTopic)
	}
	relay := postgres.NewOutboxRelay(backend.Pool.Pool, outboxBatchSize, handler)

	// --- Locks ---
	var locks lock.Runner = lock.NewLocal()
	if cfg.RedisAddress != "" {
		client, err := lock.Connect(ctx, cfg.RedisAddress)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer func() { _ = client.Close() }()
		locks = lock.NewRedis(client, "")
		log.Infow("using redis job locks", "addr", cfg.RedisAddress)
	}

	sweeper := inventory.NewSweeper(
		backend.Services.Inventory,
		backend.Ledger,
		backend.TxManager,
		backend.Publisher,
		inventory.AlertOptions{LowStockThreshold: cfg.LowStockThreshold},
	)
	idempotency := postgres.NewIdempotencyStore(backend.TxStore, cfg.IdempotencyTTL)

	s := &scheduler{
		locks: locks,
		log:   log.WithComponent("worker"),
		jobs: []job{
			{name: "outbox-relay", interval: cfg.OutboxPollInterval, run: func(ctx context.Context) error {
				n, err := relay.ProcessBatch(ctx)
				if n > 0 {
					logger.Debug(ctx, "processed outbox batch", "count", n)
				}
				return err
			}},
			{name: "inventory-alerts", interval: cfg.AlertSweepInterval, run: func(ctx context.Context) error {
				n, err := sweeper.Sweep(ctx)
				if n > 0 {
					logger.Info(ctx, "inventory alerts published", "pharmacies", n)
				}
				return err
			}},
			{name: "housekeeping", interval: housekeepingPeriod, run: func(ctx context.Context) error {
				return housekeeping(ctx, relay, idempotency)
			}},
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

func housekeeping(ctx context.Context, relay *postgres.OutboxRelay, idempotency *postgres.IdempotencyStore) error {
	expired, err := idempotency.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	dead, err := relay.MoveToDLQ(ctx)
	if err != nil {
		return fmt.Errorf("move outbox to dlq: %w", err)
	}
	purged, err := relay.PurgePublished(ctx, publishedRetention)
	if err != nil {
		return fmt.Errorf("purge outbox: %w", err)
	}

	if expired+dead+purged > 0 {
		logger.Info(ctx, "housekeeping done",
			"idempotency_expired", expired,
			"outbox_dead", dead,
			"outbox_purged", purged,
		)
	}
	return nil
}
