package report

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

// FinancialDashboard runs the four financial aggregations concurrently. The
// first failure cancels the others and no partial result is returned.
func (s *Service) FinancialDashboard(ctx context.Context, userID string, f FinancialFilters) (res core.FinancialDashboard, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpFinancialDashboard, userID, t, err) }(time.Now())

	if err := requireUser(userID); err != nil {
		return core.FinancialDashboard{}, err
	}

	var out core.FinancialDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Summary, err = s.FinancialSummary(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		out.Monthly, err = s.MonthlyData(gctx, userID, f.StartDate, f.EndDate)
		return err
	})
	g.Go(func() (err error) {
		out.Platforms, err = s.IncomeByPlatform(gctx, userID, f.StartDate, f.EndDate)
		return err
	})
	g.Go(func() (err error) {
		out.Categories, err = s.ExpensesByCategory(gctx, userID, f.StartDate, f.EndDate)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.FinancialDashboard{}, err
	}
	return out, nil
}

// VehicleDashboard runs summary, daily series and cost per km concurrently.
func (s *Service) VehicleDashboard(ctx context.Context, userID string, f VehicleFilters) (res core.VehicleDashboard, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpVehicleDashboard, userID, t, err) }(time.Now())

	if err := s.checkVehicle(userID, f); err != nil {
		return core.VehicleDashboard{}, err
	}

	var out core.VehicleDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Summary, err = s.VehicleSummary(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		out.Distance, err = s.DailyDistance(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		out.Fuel, err = s.DailyFuel(gctx, userID, f)
		return err
	})
	g.Go(func() (err error) {
		out.CostPerKm, err = s.CostPerKm(gctx, userID, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.VehicleDashboard{}, err
	}
	return out, nil
}
