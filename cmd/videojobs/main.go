package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"videojobs/internal/cli"
	apphttp "videojobs/internal/http"
	applog "videojobs/internal/log"
)

var revision = "unknown"

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger, closer := cli.SetupLogger(cfg, applog.ComponentHTTP)
	if closer != nil {
		defer closer.Close()
	}

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger.Logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(res.Service, apphttp.Options{
		Addr:               ":" + cfg.Port,
		Version:            revision,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		CurrencyLocale:     cfg.CurrencyLocale,
		ShowStorageNotice:  cfg.ShowStorageNotice,
		Logger:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting videojobs server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"revision", revision)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
