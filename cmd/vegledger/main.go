package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"vegledger/internal/amqp"
	"vegledger/internal/backend"
	"vegledger/internal/cli"
	"vegledger/internal/config"
	"vegledger/internal/core"
	apphttp "vegledger/internal/http"
	"vegledger/internal/ident"
	applog "vegledger/internal/log"
	"vegledger/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	// The change feed is optional; without it the worker relies on its periodic export.
	var notifier services.ChangeNotifier
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change feed disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			notifier = client
			logger.Info("Publishing sale changes", "exchange", cfg.AMQPExchange)
		}
	}

	customers, err := services.NewCustomerRegistry(ctx, res.Store, ident.UUID{})
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	ledger, err := services.NewSalesLedger(ctx, res.Store, ident.UUID{}, notifier)
	if err != nil {
		return fmt.Errorf("load sales: %w", err)
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Customers:          customers,
		Sales:              ledger,
		Dashboard:          services.NewDashboard(ledger, customers, nil),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready: func(ctx context.Context) error {
			_, _, err := res.Store.Load(ctx, core.SlotCustomers)
			return err
		},
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting vegledger server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			applog.FieldOperation, applog.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
