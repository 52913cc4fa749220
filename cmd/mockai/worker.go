package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/mockai/internal/chat"
	"github.com/suPer8Hu/mockai/internal/config"
	"github.com/suPer8Hu/mockai/internal/db"
	"github.com/suPer8Hu/mockai/internal/store/rabbitmq"
	"github.com/suPer8Hu/mockai/internal/worker"
)

func newWorkerCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume queued transcripts into the archive database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if concurrency > 0 {
				cfg.WorkerConcurrency = concurrency
			}
			if cfg.RabbitURL == "" {
				return errors.New("worker: RABBIT_URL is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx, cfg)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "consumer goroutines (overrides WORKER_CONCURRENCY)")
	return cmd
}

func runWorker(ctx context.Context, cfg config.Config) error {
	gdb, err := db.Open(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	repo := chat.NewRepo(gdb)
	if err := repo.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// retries are published on their own channel
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		return fmt.Errorf("rabbit publisher: %w", err)
	}
	defer pub.Close()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		return fmt.Errorf("rabbit dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbit channel: %w", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	w := worker.New(repo, pub, cfg.WorkerConcurrency)

	// strict concurrency control
	if err := ch.Qos(w.Concurrency(), 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	retention := worker.NewRetention(repo, cfg.TranscriptRetentionDays)
	if err := retention.Schedule(cfg.RetentionSchedule); err != nil {
		return err
	}
	retention.Start()
	defer retention.Stop()

	log.Info().
		Str("queue", cfg.RabbitQueue).
		Int("concurrency", w.Concurrency()).
		Str("retention_schedule", cfg.RetentionSchedule).
		Int("retention_days", cfg.TranscriptRetentionDays).
		Msg("worker started")

	w.Run(ctx, msgs)
	return nil
}

func newPurgeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete archived transcripts older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("days") {
				cfg.TranscriptRetentionDays = days
			}
			gdb, err := db.Open(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			repo := chat.NewRepo(gdb)
			if err := repo.AutoMigrate(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			n, err := worker.NewRetention(repo, cfg.TranscriptRetentionDays).Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d transcript(s)\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention window in days (overrides TRANSCRIPT_RETENTION_DAYS)")
	return cmd
}
