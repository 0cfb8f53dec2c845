package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

// BatchExporter exports a period for every user.
type BatchExporter interface {
	ExportAll(ctx context.Context, from, to core.Date) (int, error)
}

// ExportScheduler runs batch exports on a cron schedule. Each run covers the
// last complete period chosen by its PeriodStrategy.
type ExportScheduler struct {
	exports  BatchExporter
	schedule string
	period   PeriodStrategy
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewExportScheduler(exports BatchExporter, schedule string, period PeriodStrategy, logger *log.Logger) *ExportScheduler {
	if logger == nil {
		logger = log.Discard()
	}
	if period == nil {
		period = MonthlyPeriod{}
	}
	return &ExportScheduler{
		exports:  exports,
		schedule: schedule,
		period:   period,
		logger:   logger.WithComponent(log.ComponentScheduler),
		now:      time.Now,
	}
}

// Start registers the export job and starts the cron loop. Returns an error
// if already running or if the schedule does not parse.
func (s *ExportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("export scheduler is already running")
	}

	clog := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Scheduled export finished with errors", log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("parse export schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.running = true

	s.logger.InfoContext(ctx, "Export scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops scheduling and waits for a running job to finish or ctx to end.
func (s *ExportScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	done := s.cron.Stop()
	s.running = false
	s.mu.Unlock()

	select {
	case <-done.Done():
		s.logger.InfoContext(ctx, "Export scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Export scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *ExportScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce exports the previous period immediately.
func (s *ExportScheduler) RunOnce(ctx context.Context) (int, error) {
	from, to := s.period.Previous(s.now())
	s.logger.InfoContext(ctx, "Running scheduled export",
		log.FieldStartDate, from.String(),
		log.FieldEndDate, to.String())
	return s.exports.ExportAll(ctx, from, to)
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, log.FieldError, err)...)
}
