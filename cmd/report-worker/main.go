package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"gigtrack/internal/amqp"
	"gigtrack/internal/cli"
	"gigtrack/internal/export"
	"gigtrack/internal/log"
	"gigtrack/internal/metrics"
	"gigtrack/internal/report"
	"gigtrack/internal/services"
	"gigtrack/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting report-worker",
		"backend", cfg.DataBackend,
		"format", cfg.ExportFormat,
		"schedule", cfg.ExportSchedule)

	store := cli.InitBackend(context.Background(), logger, cfg)

	m := metrics.New()
	reports := report.NewService(store.Backend, logger, report.WithRecorder(m))

	writers, err := export.Writers(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize report writers", log.FieldError, err)
		os.Exit(1)
	}
	exports := services.NewExportService(reports, store.Backend, cfg.ExportFormat, logger,
		append(writers, services.WithExportRecorder(m))...)

	var scheduler *services.ExportScheduler
	if cfg.ExportSchedule != "" {
		period, err := services.GetPeriodStrategy(cfg.ExportPeriod)
		if err != nil {
			logger.Error("Invalid export period", log.FieldError, err)
			os.Exit(1)
		}
		scheduler = services.NewExportScheduler(exports, cfg.ExportSchedule, period, logger)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
	}

	if scheduler == nil && amqpClient == nil {
		logger.Error("Nothing to do: set AMQP_URL or EXPORT_SCHEDULE")
		os.Exit(1)
	}

	var metricsSrv *http.Server
	if cfg.WorkerMetricsAddr != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if scheduler != nil {
			if err := scheduler.Stop(ctx); err != nil {
				logger.Warn("Scheduler stop error", log.FieldError, err)
			}
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
		if store.Cleanup != nil {
			_ = store.Cleanup()
		}
	})

	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", log.FieldError, err)
			}
		}()
	}

	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start export scheduler", log.FieldError, err)
			os.Exit(1)
		}
	}

	if amqpClient != nil {
		w := worker.NewExportWorker(exports, logger)
		go func() {
			if err := w.Run(ctx, amqpClient); err != nil {
				logger.Error("Message consumption failed", log.FieldError, err)
				os.Exit(1)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
