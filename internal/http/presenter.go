package http

import (
	"math"

	"github.com/shopspring/decimal"

	"gigtrack/internal/core"
)

// Amounts go out as JSON numbers; each money value also gets a string
// formatted in the reader's display currency.

type SummaryResponse struct {
	Currency              string  `json:"currency"`
	TotalIncome           float64 `json:"totalIncome"`
	TotalExpense          float64 `json:"totalExpense"`
	Profit                float64 `json:"profit"`
	IncomeCount           int     `json:"incomeCount"`
	ExpenseCount          int     `json:"expenseCount"`
	TotalIncomeFormatted  string  `json:"totalIncomeFormatted"`
	TotalExpenseFormatted string  `json:"totalExpenseFormatted"`
	ProfitFormatted       string  `json:"profitFormatted"`
}

type MonthlyPoint struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

type PlatformShare struct {
	PlatformID     *string `json:"platformId"`
	PlatformName   string  `json:"platformName"`
	Total          float64 `json:"total"`
	Percentage     float64 `json:"percentage"`
	TotalFormatted string  `json:"totalFormatted"`
}

type CategoryShare struct {
	Category       string  `json:"category"`
	Total          float64 `json:"total"`
	Percentage     float64 `json:"percentage"`
	TotalFormatted string  `json:"totalFormatted"`
}

// ListResponse wraps a series with the currency its amounts are in.
type ListResponse[T any] struct {
	Currency string `json:"currency"`
	Items    []T    `json:"items"`
}

type FinancialDashboardResponse struct {
	Currency   string          `json:"currency"`
	Summary    SummaryResponse `json:"summary"`
	Monthly    []MonthlyPoint  `json:"monthly"`
	Platforms  []PlatformShare `json:"platforms"`
	Categories []CategoryShare `json:"categories"`
}

type VehicleSummaryResponse struct {
	Currency                      string  `json:"currency"`
	TotalDistance                 float64 `json:"totalDistance"`
	TotalFuel                     float64 `json:"totalFuel"`
	TotalEnergy                   float64 `json:"totalEnergy"`
	TotalMaintenanceCost          float64 `json:"totalMaintenanceCost"`
	AvgFuelEconomy                float64 `json:"avgFuelEconomy"`
	AvgEnergyConsumption          float64 `json:"avgEnergyConsumption"`
	CostPerKm                     float64 `json:"costPerKm"`
	UsageCount                    int     `json:"usageCount"`
	MaintenanceCount              int     `json:"maintenanceCount"`
	TotalMaintenanceCostFormatted string  `json:"totalMaintenanceCostFormatted"`
	CostPerKmFormatted            string  `json:"costPerKmFormatted"`
}

type DistancePoint struct {
	Date     string  `json:"date"`
	Distance float64 `json:"distance"`
}

type FuelPoint struct {
	Date       string  `json:"date"`
	FuelLiters float64 `json:"fuelLiters"`
	EnergyKwh  float64 `json:"energyKwh"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
}

type CostPerKmResponse struct {
	Currency             string  `json:"currency"`
	TotalMaintenanceCost float64 `json:"totalMaintenanceCost"`
	TotalDistance        float64 `json:"totalDistance"`
	CostPerKm            float64 `json:"costPerKm"`
	CostPerKmFormatted   string  `json:"costPerKmFormatted"`
}

type MaintenanceShare struct {
	Type           string  `json:"type"`
	Total          float64 `json:"total"`
	Count          int     `json:"count"`
	Percentage     float64 `json:"percentage"`
	TotalFormatted string  `json:"totalFormatted"`
}

type VehicleDashboardResponse struct {
	Currency  string                 `json:"currency"`
	Summary   VehicleSummaryResponse `json:"summary"`
	Distance  []DistancePoint        `json:"distance"`
	Fuel      []FuelPoint            `json:"fuel"`
	CostPerKm CostPerKmResponse      `json:"costPerKm"`
}

type ExportAccepted struct {
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Format    string `json:"format"`
	RequestID string `json:"requestId,omitempty"`
}

type presenter struct {
	currency string
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// pct rounds a share to two decimal places.
func pct(v float64) float64 {
	return math.Round(v*100) / 100
}

func (p presenter) money(d decimal.Decimal) string {
	return core.FormatMoney(d, p.currency)
}

func (p presenter) summary(s core.FinancialSummary) SummaryResponse {
	return SummaryResponse{
		Currency:              p.currency,
		TotalIncome:           num(s.TotalIncome),
		TotalExpense:          num(s.TotalExpense),
		Profit:                num(s.Profit),
		IncomeCount:           s.IncomeCount,
		ExpenseCount:          s.ExpenseCount,
		TotalIncomeFormatted:  p.money(s.TotalIncome),
		TotalExpenseFormatted: p.money(s.TotalExpense),
		ProfitFormatted:       p.money(s.Profit),
	}
}

func (p presenter) monthly(points []core.MonthlyPoint) []MonthlyPoint {
	out := make([]MonthlyPoint, 0, len(points))
	for _, m := range points {
		out = append(out, MonthlyPoint{
			Month:    m.Month,
			Income:   num(m.Income),
			Expenses: num(m.Expenses),
			Profit:   num(m.Profit),
		})
	}
	return out
}

func (p presenter) platforms(groups []core.PlatformBreakdown) []PlatformShare {
	out := make([]PlatformShare, 0, len(groups))
	for _, g := range groups {
		out = append(out, PlatformShare{
			PlatformID:     g.PlatformID,
			PlatformName:   g.PlatformName,
			Total:          num(g.Total),
			Percentage:     pct(g.Percentage),
			TotalFormatted: p.money(g.Total),
		})
	}
	return out
}

func (p presenter) categories(groups []core.CategoryBreakdown) []CategoryShare {
	out := make([]CategoryShare, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategoryShare{
			Category:       string(g.Category),
			Total:          num(g.Total),
			Percentage:     pct(g.Percentage),
			TotalFormatted: p.money(g.Total),
		})
	}
	return out
}

func (p presenter) financialDashboard(d core.FinancialDashboard) FinancialDashboardResponse {
	return FinancialDashboardResponse{
		Currency:   p.currency,
		Summary:    p.summary(d.Summary),
		Monthly:    p.monthly(d.Monthly),
		Platforms:  p.platforms(d.Platforms),
		Categories: p.categories(d.Categories),
	}
}

func (p presenter) vehicleSummary(s core.VehicleSummary) VehicleSummaryResponse {
	return VehicleSummaryResponse{
		Currency:                      p.currency,
		TotalDistance:                 num(s.TotalDistance),
		TotalFuel:                     num(s.TotalFuel),
		TotalEnergy:                   num(s.TotalEnergy),
		TotalMaintenanceCost:          num(s.TotalMaintenanceCost),
		AvgFuelEconomy:                num(s.AvgFuelEconomy),
		AvgEnergyConsumption:          num(s.AvgEnergyConsumption),
		CostPerKm:                     num(s.CostPerKm),
		UsageCount:                    s.UsageCount,
		MaintenanceCount:              s.MaintenanceCount,
		TotalMaintenanceCostFormatted: p.money(s.TotalMaintenanceCost),
		CostPerKmFormatted:            p.money(s.CostPerKm),
	}
}

func (p presenter) distance(points []core.DailyDistancePoint) []DistancePoint {
	out := make([]DistancePoint, 0, len(points))
	for _, d := range points {
		out = append(out, DistancePoint{Date: d.Date.String(), Distance: num(d.DistanceKm)})
	}
	return out
}

func (p presenter) fuel(points []core.DailyFuelPoint) []FuelPoint {
	out := make([]FuelPoint, 0, len(points))
	for _, f := range points {
		out = append(out, FuelPoint{
			Date:       f.Date.String(),
			FuelLiters: num(f.FuelLiters),
			EnergyKwh:  num(f.EnergyKwh),
			Value:      num(f.Value),
			Unit:       f.Unit,
		})
	}
	return out
}

func (p presenter) costPerKm(c core.CostPerKm) CostPerKmResponse {
	return CostPerKmResponse{
		Currency:             p.currency,
		TotalMaintenanceCost: num(c.TotalMaintenanceCost),
		TotalDistance:        num(c.TotalDistance),
		CostPerKm:            num(c.CostPerKm),
		CostPerKmFormatted:   p.money(c.CostPerKm),
	}
}

func (p presenter) maintenance(groups []core.MaintenanceBreakdown) []MaintenanceShare {
	out := make([]MaintenanceShare, 0, len(groups))
	for _, g := range groups {
		out = append(out, MaintenanceShare{
			Type:           string(g.Type),
			Total:          num(g.Total),
			Count:          g.Count,
			Percentage:     pct(g.Percentage),
			TotalFormatted: p.money(g.Total),
		})
	}
	return out
}

func (p presenter) vehicleDashboard(d core.VehicleDashboard) VehicleDashboardResponse {
	return VehicleDashboardResponse{
		Currency:  p.currency,
		Summary:   p.vehicleSummary(d.Summary),
		Distance:  p.distance(d.Distance),
		Fuel:      p.fuel(d.Fuel),
		CostPerKm: p.costPerKm(d.CostPerKm),
	}
}

func list[T any](p presenter, items []T) ListResponse[T] {
	return ListResponse[T]{Currency: p.currency, Items: items}
}
