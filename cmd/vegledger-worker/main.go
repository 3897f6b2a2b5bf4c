package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"vegledger/internal/amqp"
	"vegledger/internal/cli"
	"vegledger/internal/config"
	"vegledger/internal/core"
	applog "vegledger/internal/log"
	gsheet "vegledger/internal/sheets/google"
	"vegledger/internal/storage"
	"vegledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting vegledger-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", cfg.SQLiteDBPath, err)
	}
	defer repo.Close()

	if info, err := repo.Info(ctx, core.SlotSalesRecords); err != nil {
		logger.Warn("Could not read sales snapshot metadata", applog.FieldError, err)
	} else {
		logger.Info("Sales snapshot found",
			applog.FieldSlot, info.Slot,
			"version", info.Version,
			"updated_at", info.UpdatedAt)
	}

	exporter, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return fmt.Errorf("init google sheets client: %w", err)
	}
	exportWorker := worker.NewExportWorker(repo, exporter, cfg.ExportInterval)

	// A failed startup export is retried by the periodic loop.
	if err := exportWorker.StartupExport(ctx); err != nil {
		logger.Error("Startup export failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exportWorker.RunPeriodic(gctx)
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic export", applog.FieldError, err)
		} else {
			defer client.Close()
			g.Go(func() error {
				err := client.ConsumeWithRetry(gctx, exportWorker.HandleSaleChanged)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	} else {
		logger.Info("No AMQP_URL configured, exporting on interval only", "interval", cfg.ExportInterval)
	}

	return g.Wait()
}
