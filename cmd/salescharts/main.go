package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"salescharts/internal/amqp"
	"salescharts/internal/backend"
	"salescharts/internal/cache"
	"salescharts/internal/chart"
	"salescharts/internal/cli"
	apphttp "salescharts/internal/http"
	"salescharts/internal/log"
	"salescharts/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	defer logger.Close()

	theme, err := chart.LoadTheme(cfg.ChartThemeFile)
	if err != nil {
		logger.Error("Failed to load chart theme", log.FieldError, err, "path", cfg.ChartThemeFile)
		os.Exit(1)
	}
	renderer, err := chart.NewRenderer(theme)
	if err != nil {
		logger.Error("Invalid chart theme", log.FieldError, err)
		os.Exit(1)
	}
	regions, err := services.LoadRegionTable(cfg.RegionMapFile)
	if err != nil {
		logger.Error("Failed to load region map", log.FieldError, err, "path", cfg.RegionMapFile)
		os.Exit(1)
	}

	figures := cache.NewFigureCache(cfg.CacheSize, cfg.CacheTTL)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	backendConfig.OnReload = func() {
		removed := figures.Purge()
		logger.Info("Sales file changed, chart cache purged", log.FieldOperation, log.OpRefresh, "removed", removed)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(startCtx, backendConfig)
	cancelStart()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := apphttp.Options{
		Charts:       services.NewChartService(result.Backend, renderer, regions),
		Figures:      figures,
		ImportSource: cfg.Source(),
		ImportSheet:  cfg.SourceSheet(),
		Logger:       logger,

		RequestsPerMin:  cfg.RateLimitPerMin,
		BlockSuspicious: cfg.BlockSuspicious,
	}
	if p, ok := result.Backend.(apphttp.Pinger); ok {
		opts.Pinger = p
	}

	// The import queue is optional for the dashboard.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, POST /admin/import disabled", log.FieldError, err)
	} else {
		opts.Publisher = amqpClient
	}

	srv := apphttp.NewServer(":"+cfg.Port, opts)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if result.Refresher != nil {
			if err := result.Refresher.Stop(ctx); err != nil {
				logger.Warn("Refresh processor stop error", log.FieldError, err)
			}
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	if result.Refresher != nil {
		if err := result.Refresher.Start(ctx); err != nil {
			logger.Error("Failed to start refresh processor", log.FieldError, err)
			os.Exit(1)
		}
	}

	logger.Info("Starting salescharts server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"source", cfg.Source(),
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
