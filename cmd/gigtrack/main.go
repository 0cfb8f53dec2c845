package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"gigtrack/internal/amqp"
	"gigtrack/internal/auth"
	"gigtrack/internal/cache"
	"gigtrack/internal/cli"
	apphttp "gigtrack/internal/http"
	"gigtrack/internal/log"
	"gigtrack/internal/metrics"
	"gigtrack/internal/report"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	logger.Info("Starting gigtrack",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", cfg.AMQPURL != "")

	store := cli.InitBackend(context.Background(), logger, cfg)

	m := metrics.New()
	reports := report.NewService(store.Backend, logger, report.WithRecorder(m))

	resolver := auth.NewResolver(store.Backend, auth.ResolverConfig{
		CacheSize: cfg.IdentityCacheSize,
		CacheTTL:  cfg.IdentityCacheTTL,
	}, logger)
	caches := cache.NewManager(logger)
	caches.Register("identity", resolver.Cache())

	// Exports are optional; without a broker the endpoint answers 503.
	var (
		amqpClient *amqp.Client
		publisher  apphttp.ExportPublisher
	)
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, exports disabled", log.FieldError, err)
		} else {
			amqpClient, publisher = c, c
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		ReportTimeout:   cfg.ReportTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
		TrustProxy:      cfg.TrustProxyHeaders,
		ExportFormat:    cfg.ExportFormat,
	}, apphttp.Deps{
		Reports:        reports,
		Users:          store.Backend,
		Health:         store.Backend,
		Resolver:       resolver,
		Exports:        publisher,
		Observer:       m,
		MetricsHandler: m.Handler(),
		Logger:         logger,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})
	caches.Start(ctx, cfg.IdentityCacheTTL)

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
