// Command audit-archiver copies the Kafka audit stream into Postgres so it
// can be queried by signer.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"folio/internal/platform/config"
	"folio/internal/platform/kafka"
	"folio/internal/platform/logger"
	"folio/internal/platform/postgres"
	"folio/pkg/platform/audit/consumer"
	pgaudit "folio/pkg/platform/audit/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format).With("component", "audit-archiver")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("archiver exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if len(cfg.Kafka.Brokers) == 0 || cfg.DatabaseURL == "" {
		return errors.New("kafka.brokers and database.url are required")
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	store := pgaudit.New(db)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	client, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.AuditTopic)
	if err != nil {
		return err
	}
	defer client.Close()

	log.InfoContext(ctx, "archiving audit events", "topic", cfg.Kafka.AuditTopic, "group", cfg.Kafka.ConsumerGroup)
	if err := consumer.New(client, store, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
