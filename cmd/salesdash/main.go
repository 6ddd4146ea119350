package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/amqp"
	"salesdash/internal/backend"
	"salesdash/internal/cache"
	"salesdash/internal/cli"
	"salesdash/internal/config"
	"salesdash/internal/core"
	apphttp "salesdash/internal/http"
	applog "salesdash/internal/log"
	"salesdash/internal/services"
	"salesdash/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoadConfig(applog.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}()
	}

	sales := services.NewSalesService(result.Source, services.SalesConfig{
		TotalItemsPolicy: core.WindowPolicy(cfg.TotalItemsWindow),
		QueryTimeout:     cfg.QueryTimeout,
	}, logger)

	ready := apphttp.ReadyFunc(result.Check)
	if ready == nil {
		ready = func(ctx context.Context) error {
			_, err := result.Source.Load(ctx)
			return err
		}
	}

	srvCfg := apphttp.Config{
		Addr:               ":" + cfg.Port,
		Sales:              sales,
		Ready:              ready,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}
	if result.Cache != nil {
		srvCfg.Cache = result.Cache
	}
	if result.Describe != nil {
		srvCfg.DatasetInfo = apphttp.DatasetInfoFunc(result.Describe)
	}
	srv, err := apphttp.NewServer(srvCfg)
	if err != nil {
		return err
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.QueryTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting salesdash server",
			"port", cfg.Port,
			applog.FieldSource, cfg.DataSource,
			"cache_enabled", result.Cache != nil,
			"total_items_window", cfg.TotalItemsWindow)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
			return err
		}
		return nil
	})

	if result.Cache != nil {
		cacheLogger := logger.WithComponent(applog.ComponentCache)
		if cfg.CacheTTL > 0 {
			manager := cache.NewManager(func(removed int) {
				cacheLogger.Debug("Cache cleanup completed", "entries_removed", removed)
			})
			manager.Register(result.Cache.Cleaner())
			manager.StartCleanup(cfg.CacheTTL)
			defer manager.Stop()
		}

		if cfg.AMQPEnabled() {
			startInvalidationWorker(gctx, g, cfg, logger, result.Cache)
		}
	}

	return g.Wait()
}

// startInvalidationWorker subscribes the cache to dataset update messages.
// A broker outage only disables push invalidation; versioned sources still
// refresh on their own.
func startInvalidationWorker(ctx context.Context, g *errgroup.Group, cfg *config.Config, logger *applog.Logger, target worker.Invalidator) {
	workerLogger := logger.WithComponent(applog.ComponentWorker)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		workerLogger.Warn("Failed to initialize AMQP client, continuing without cache invalidation", applog.FieldError, err)
		return
	}
	workerLogger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	w := worker.NewInvalidationWorker(target)
	g.Go(func() error {
		defer client.Close()
		if err := w.Run(ctx, client); err != nil {
			workerLogger.Error("Cache invalidation worker failed", applog.FieldError, err)
		}
		id, at := w.LastImport()
		workerLogger.Info("Cache invalidation worker stopped",
			applog.FieldImportID, id,
			"last_applied", at)
		return nil
	})
}
