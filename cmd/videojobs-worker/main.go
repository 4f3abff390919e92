package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"videojobs/internal/amqp"
	"videojobs/internal/cli"
	applog "videojobs/internal/log"
	gsheet "videojobs/internal/sheets/google"
	"videojobs/internal/storage"
	"videojobs/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger, closer := cli.SetupLogger(cfg, applog.ComponentWorker)
	if closer != nil {
		defer closer.Close()
	}

	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting videojobs-worker")

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	mirror := worker.NewMirrorWorker(repo, sheetsClient)

	// Catch up on anything recorded while the worker was down
	if err := mirror.Resync(ctx); err != nil {
		logger.Error("Startup resync failed", applog.FieldError, err)
	}

	if cfg.ResyncSchedule != "" {
		if _, err := mirror.StartResync(ctx, cfg.ResyncSchedule); err != nil {
			logger.Error("Failed to schedule resync", applog.FieldError, err)
			os.Exit(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consume(gctx, logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, mirror)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// consume keeps a consumer attached to the queue, reconnecting with backoff
// whenever the broker connection drops.
func consume(ctx context.Context, logger *applog.Logger, url, exchange, queue string, mirror *worker.MirrorWorker) error {
	for attempt := 0; ; attempt++ {
		client, err := amqp.NewClient(url, exchange, queue)
		if err == nil {
			attempt = 0
			err = client.ConsumeJobRecorded(ctx, mirror.HandleJobRecorded)
			client.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := amqp.ReconnectDelay(attempt)
		logger.Warn("AMQP consumer disconnected, reconnecting",
			applog.FieldError, err,
			"attempt", attempt+1,
			"delay", delay.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
