package http

import (
	"context"
	"net/http"

	"gigtrack/internal/core"
)

// Vehicle endpoints require startDate and endDate; the aggregator rejects
// a missing bound before reading storage.

func (s *Server) handleVehicleDashboard(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) (core.VehicleDashboard, error) {
			return s.reports.VehicleDashboard(ctx, userID, p.Vehicle())
		},
		presenter.vehicleDashboard)
}

func (s *Server) handleVehicleSummary(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) (core.VehicleSummary, error) {
			return s.reports.VehicleSummary(ctx, userID, p.Vehicle())
		},
		presenter.vehicleSummary)
}

func (s *Server) handleDailyDistance(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) ([]core.DailyDistancePoint, error) {
			return s.reports.DailyDistance(ctx, userID, p.Vehicle())
		},
		func(p presenter, v []core.DailyDistancePoint) ListResponse[DistancePoint] {
			return list(p, p.distance(v))
		})
}

func (s *Server) handleDailyFuel(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) ([]core.DailyFuelPoint, error) {
			return s.reports.DailyFuel(ctx, userID, p.Vehicle())
		},
		func(p presenter, v []core.DailyFuelPoint) ListResponse[FuelPoint] {
			return list(p, p.fuel(v))
		})
}

func (s *Server) handleCostPerKm(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) (core.CostPerKm, error) {
			return s.reports.CostPerKm(ctx, userID, p.Vehicle())
		},
		presenter.costPerKm)
}

func (s *Server) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	serveReport(s, w, r,
		func(ctx context.Context, userID string, p ReportParams) ([]core.MaintenanceBreakdown, error) {
			return s.reports.MaintenanceByType(ctx, userID, p.Vehicle())
		},
		func(p presenter, v []core.MaintenanceBreakdown) ListResponse[MaintenanceShare] {
			return list(p, p.maintenance(v))
		})
}
