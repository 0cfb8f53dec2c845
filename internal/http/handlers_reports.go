package http

import (
	"context"
	"net/http"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

// serveReport runs one aggregation for the request's scope. Authorization
// and parameter validation happen before any storage access.
func serveReport[T, R any](
	s *Server, w http.ResponseWriter, r *http.Request,
	run func(ctx context.Context, userID string, p ReportParams) (T, error),
	present func(presenter, T) R,
) {
	id, userID, err := s.scope(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params, err := ParseReportParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := s.reportContext(r)
	defer cancel()

	p := presenter{currency: id.Currency}
	if userID != id.UserID {
		target, err := s.users.GetUser(ctx, userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		p.currency = target.Currency
		log.FromContext(ctx).InfoContext(ctx, "Admin report access",
			log.FieldTargetUser, userID, log.FieldPath, r.URL.Path)
	}

	res, err := run(ctx, userID, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, present(p, res))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) (core.FinancialSummary, error) {
			return s.reports.FinancialSummary(ctx, userID, p.Financial())
		},
		presenter.summary)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) ([]core.MonthlyPoint, error) {
			start, end := p.Range()
			return s.reports.MonthlyData(ctx, userID, start, end)
		},
		func(p presenter, v []core.MonthlyPoint) ListResponse[MonthlyPoint] {
			return list(p, p.monthly(v))
		})
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) ([]core.PlatformBreakdown, error) {
			start, end := p.Range()
			return s.reports.IncomeByPlatform(ctx, userID, start, end)
		},
		func(p presenter, v []core.PlatformBreakdown) ListResponse[PlatformShare] {
			return list(p, p.platforms(v))
		})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) ([]core.CategoryBreakdown, error) {
			start, end := p.Range()
			return s.reports.ExpensesByCategory(ctx, userID, start, end)
		},
		func(p presenter, v []core.CategoryBreakdown) ListResponse[CategoryShare] {
			return list(p, p.categories(v))
		})
}

func (s *Server) handleFinancialDashboard(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) (core.FinancialDashboard, error) {
			return s.reports.FinancialDashboard(ctx, userID, p.Financial())
		},
		presenter.financialDashboard)
}

// Admin variants read the {userID} scope; requireAdmin has already run.

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	s.handleFinancialDashboard(w, r)
}

func (s *Server) handleAdminVehicleMetrics(w http.ResponseWriter, r *http.Request) {
	s.handleVehicleDashboard(w, r)
}
