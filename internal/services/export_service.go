package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
	"gigtrack/internal/report"
	ports "gigtrack/internal/sheets"
)

// ReportSource is the subset of the report service an export needs.
type ReportSource interface {
	FinancialDashboard(ctx context.Context, userID string, f report.FinancialFilters) (core.FinancialDashboard, error)
	VehicleDashboard(ctx context.Context, userID string, f report.VehicleFilters) (core.VehicleDashboard, error)
	MaintenanceByType(ctx context.Context, userID string, f report.VehicleFilters) ([]core.MaintenanceBreakdown, error)
}

// UserDirectory resolves export owners.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
}

// ExportRecorder counts finished exports per format.
type ExportRecorder interface {
	ObserveExport(format string, err error)
}

type nopExportRecorder struct{}

func (nopExportRecorder) ObserveExport(string, error) {}

// ExportService assembles report exports and hands them to a writer.
type ExportService struct {
	reports       ReportSource
	users         UserDirectory
	writers       map[string]ports.ReportWriter
	defaultFormat string
	recorder      ExportRecorder
	logger        *log.Logger
	now           func() time.Time
}

type ExportOption func(*ExportService)

// WithWriter registers the writer used for format.
func WithWriter(format string, w ports.ReportWriter) ExportOption {
	return func(s *ExportService) {
		s.writers[format] = w
	}
}

func WithExportRecorder(r ExportRecorder) ExportOption {
	return func(s *ExportService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides the generation timestamp source. Used by tests.
func WithClock(now func() time.Time) ExportOption {
	return func(s *ExportService) {
		s.now = now
	}
}

func NewExportService(reports ReportSource, users UserDirectory, defaultFormat string, logger *log.Logger, opts ...ExportOption) *ExportService {
	if logger == nil {
		logger = log.Discard()
	}
	s := &ExportService{
		reports:       reports,
		users:         users,
		writers:       make(map[string]ports.ReportWriter),
		defaultFormat: defaultFormat,
		recorder:      nopExportRecorder{},
		logger:        logger.WithComponent(log.ComponentExport),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supports reports whether a writer is registered for format.
func (s *ExportService) Supports(format string) bool {
	if format == "" {
		format = s.defaultFormat
	}
	_, ok := s.writers[format]
	return ok
}

// Export builds the full report set of one user for [from, to] and writes it
// in the given format. An empty format selects the default one. It returns
// the writer's reference to the stored export.
func (s *ExportService) Export(ctx context.Context, userID string, from, to core.Date, format string) (string, error) {
	if userID == "" {
		return "", core.NewValidationError("userId", "is required")
	}
	if from.IsEmpty() {
		return "", core.NewValidationError("startDate", "is required")
	}
	if to.IsEmpty() {
		return "", core.NewValidationError("endDate", "is required")
	}
	if to.Time.Before(from.Time) {
		return "", core.NewValidationError("endDate", "must not be before startDate")
	}
	if format == "" {
		format = s.defaultFormat
	}
	writer, ok := s.writers[format]
	if !ok {
		return "", core.NewValidationError("format", "unsupported export format %q", format)
	}

	ref, err := s.export(ctx, writer, userID, from, to)
	s.recorder.ObserveExport(format, err)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Report export completed",
		log.FieldUserID, userID,
		log.FieldStartDate, from.String(),
		log.FieldEndDate, to.String(),
		log.FieldFormat, format,
		log.FieldExportRef, ref)
	return ref, nil
}

func (s *ExportService) export(ctx context.Context, writer ports.ReportWriter, userID string, from, to core.Date) (string, error) {
	out := core.ReportExport{From: from, To: to}
	fin := report.FinancialFilters{StartDate: from, EndDate: to}
	veh := report.VehicleFilters{StartDate: from, EndDate: to}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.User, err = s.users.GetUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Financial, err = s.reports.FinancialDashboard(gctx, userID, fin)
		return err
	})
	g.Go(func() (err error) {
		out.Vehicle, err = s.reports.VehicleDashboard(gctx, userID, veh)
		return err
	})
	g.Go(func() (err error) {
		out.Maintenance, err = s.reports.MaintenanceByType(gctx, userID, veh)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}
	out.GeneratedAt = s.now().UTC()

	ref, err := writer.WriteReport(ctx, out)
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return ref, nil
}

// ExportAll exports [from, to] for every user in the default format. A
// failing user does not stop the run; all failures are joined into the
// returned error.
func (s *ExportService) ExportAll(ctx context.Context, from, to core.Date) (int, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var (
		exported int
		errs     []error
	)
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.Export(ctx, u.ID, from, to, ""); err != nil {
			s.logger.ErrorContext(ctx, "Report export failed",
				log.FieldUserID, u.ID,
				log.FieldError, err)
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
			continue
		}
		exported++
	}

	s.logger.InfoContext(ctx, "Batch export finished",
		log.FieldStartDate, from.String(),
		log.FieldEndDate, to.String(),
		"users", len(users),
		"exported", exported)
	return exported, errors.Join(errs...)
}
