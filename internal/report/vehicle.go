package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

var one = decimal.NewFromInt(1)

// VehicleSummary totals usage and maintenance for the window and derives
// consumption and cost ratios. With no distance every ratio is 0.
func (s *Service) VehicleSummary(ctx context.Context, userID string, f VehicleFilters) (res core.VehicleSummary, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpVehicleSummary, userID, t, err) }(time.Now())

	if err := s.checkVehicle(userID, f); err != nil {
		return core.VehicleSummary{}, err
	}
	usage, err := s.src.ListUsageLogs(ctx, f.query(userID))
	if err != nil {
		return core.VehicleSummary{}, fmt.Errorf("list usage logs: %w", err)
	}
	maint, err := s.src.ListMaintenance(ctx, f.query(userID))
	if err != nil {
		return core.VehicleSummary{}, fmt.Errorf("list maintenance: %w", err)
	}
	return summarizeVehicle(usage, maint), nil
}

func (s *Service) checkVehicle(userID string, f VehicleFilters) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return f.Validate()
}

func summarizeVehicle(usage []core.UsageLog, maint []core.Maintenance) core.VehicleSummary {
	res := core.VehicleSummary{
		TotalDistance:        decimal.Zero,
		TotalFuel:            decimal.Zero,
		TotalEnergy:          decimal.Zero,
		TotalMaintenanceCost: maintenanceCost(maint),
		UsageCount:           len(usage),
		MaintenanceCount:     len(maint),
	}
	for _, u := range usage {
		res.TotalDistance = res.TotalDistance.Add(u.DistanceKm)
		if u.FuelLiters != nil {
			res.TotalFuel = res.TotalFuel.Add(*u.FuelLiters)
		}
		if u.EnergyKwh != nil {
			res.TotalEnergy = res.TotalEnergy.Add(*u.EnergyKwh)
		}
	}
	res.AvgFuelEconomy = ratio(res.TotalFuel, res.TotalDistance, hundred)
	res.AvgEnergyConsumption = ratio(res.TotalEnergy, res.TotalDistance, hundred)
	res.CostPerKm = ratio(res.TotalMaintenanceCost, res.TotalDistance, one)
	return res
}

func maintenanceCost(maint []core.Maintenance) decimal.Decimal {
	total := decimal.Zero
	for _, m := range maint {
		if m.Cost != nil {
			total = total.Add(*m.Cost)
		}
	}
	return total
}

// DailyDistance returns one point per day with usage, ascending.
func (s *Service) DailyDistance(ctx context.Context, userID string, f VehicleFilters) (res []core.DailyDistancePoint, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpDailyDistance, userID, t, err) }(time.Now())

	if err := s.checkVehicle(userID, f); err != nil {
		return nil, err
	}
	usage, err := s.src.ListUsageLogs(ctx, f.query(userID))
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	return dailyDistance(usage), nil
}

func dailyDistance(usage []core.UsageLog) []core.DailyDistancePoint {
	days := make(map[string]*core.DailyDistancePoint)
	for _, u := range usage {
		key := u.Date.String()
		p, ok := days[key]
		if !ok {
			p = &core.DailyDistancePoint{Date: u.Date, DistanceKm: decimal.Zero}
			days[key] = p
		}
		p.DistanceKm = p.DistanceKm.Add(u.DistanceKm)
	}
	out := make([]core.DailyDistancePoint, 0, len(days))
	for _, p := range days {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// DailyFuel returns one point per day with usage, ascending. Liters and kWh
// are kept apart; a day with any energy reading reports in kWh.
func (s *Service) DailyFuel(ctx context.Context, userID string, f VehicleFilters) (res []core.DailyFuelPoint, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpDailyFuel, userID, t, err) }(time.Now())

	if err := s.checkVehicle(userID, f); err != nil {
		return nil, err
	}
	usage, err := s.src.ListUsageLogs(ctx, f.query(userID))
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	return dailyFuel(usage), nil
}

func dailyFuel(usage []core.UsageLog) []core.DailyFuelPoint {
	type day struct {
		point     core.DailyFuelPoint
		hasEnergy bool
	}
	days := make(map[string]*day)
	for _, u := range usage {
		key := u.Date.String()
		d, ok := days[key]
		if !ok {
			d = &day{point: core.DailyFuelPoint{Date: u.Date, FuelLiters: decimal.Zero, EnergyKwh: decimal.Zero}}
			days[key] = d
		}
		switch {
		case u.EnergyKwh != nil:
			d.point.EnergyKwh = d.point.EnergyKwh.Add(*u.EnergyKwh)
			d.hasEnergy = true
		case u.FuelLiters != nil:
			d.point.FuelLiters = d.point.FuelLiters.Add(*u.FuelLiters)
		}
	}

	out := make([]core.DailyFuelPoint, 0, len(days))
	for _, d := range days {
		p := d.point
		if d.hasEnergy {
			p.Value, p.Unit = p.EnergyKwh, core.UnitKwh
		} else {
			p.Value, p.Unit = p.FuelLiters, core.UnitLiters
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// CostPerKm divides maintenance cost by distance driven in the same window.
func (s *Service) CostPerKm(ctx context.Context, userID string, f VehicleFilters) (res core.CostPerKm, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpCostPerKm, userID, t, err) }(time.Now())

	if err := s.checkVehicle(userID, f); err != nil {
		return core.CostPerKm{}, err
	}
	usage, err := s.src.ListUsageLogs(ctx, f.query(userID))
	if err != nil {
		return core.CostPerKm{}, fmt.Errorf("list usage logs: %w", err)
	}
	maint, err := s.src.ListMaintenance(ctx, f.query(userID))
	if err != nil {
		return core.CostPerKm{}, fmt.Errorf("list maintenance: %w", err)
	}
	distance := decimal.Zero
	for _, u := range usage {
		distance = distance.Add(u.DistanceKm)
	}
	cost := maintenanceCost(maint)
	return core.CostPerKm{
		TotalMaintenanceCost: cost,
		TotalDistance:        distance,
		CostPerKm:            ratio(cost, distance, one),
	}, nil
}

// MaintenanceByType groups maintenance cost by type, largest first.
func (s *Service) MaintenanceByType(ctx context.Context, userID string, f VehicleFilters) (res []core.MaintenanceBreakdown, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpMaintenanceByType, userID, t, err) }(time.Now())

	if err := s.checkVehicle(userID, f); err != nil {
		return nil, err
	}
	maint, err := s.src.ListMaintenance(ctx, f.query(userID))
	if err != nil {
		return nil, fmt.Errorf("list maintenance: %w", err)
	}
	return groupMaintenance(maint), nil
}

func groupMaintenance(maint []core.Maintenance) []core.MaintenanceBreakdown {
	groups := make(map[core.MaintenanceType]*core.MaintenanceBreakdown)
	grand := decimal.Zero
	for _, m := range maint {
		g, ok := groups[m.Type]
		if !ok {
			g = &core.MaintenanceBreakdown{Type: m.Type, Total: decimal.Zero}
			groups[m.Type] = g
		}
		g.Count++
		if m.Cost != nil {
			g.Total = g.Total.Add(*m.Cost)
			grand = grand.Add(*m.Cost)
		}
	}
	out := make([]core.MaintenanceBreakdown, 0, len(groups))
	for _, g := range groups {
		g.Percentage = percentage(g.Total, grand)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Type < out[j].Type
	})
	return out
}
