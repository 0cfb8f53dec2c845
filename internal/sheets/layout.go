package sheets

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"gigtrack/internal/core"
)

// Table is one titled block of an export.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Tables lays out an export as the tables every writer renders, in order.
func Tables(r core.ReportExport) []Table {
	fin, veh := r.Financial, r.Vehicle
	cur := r.User.Currency

	summary := Table{
		Name:   "Summary",
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"User", r.User.Name},
			{"Period", fmt.Sprintf("%s to %s", r.From, r.To)},
			{"Currency", cur},
			{"Generated at", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
			{"Total income", number(fin.Summary.TotalIncome)},
			{"Total expenses", number(fin.Summary.TotalExpense)},
			{"Profit", number(fin.Summary.Profit)},
			{"Income entries", fin.Summary.IncomeCount},
			{"Expense entries", fin.Summary.ExpenseCount},
			{"Distance (km)", number(veh.Summary.TotalDistance)},
			{"Fuel (L)", number(veh.Summary.TotalFuel)},
			{"Energy (kWh)", number(veh.Summary.TotalEnergy)},
			{"Maintenance cost", number(veh.Summary.TotalMaintenanceCost)},
			{"Fuel economy (L/100km)", number(veh.Summary.AvgFuelEconomy)},
			{"Energy use (kWh/100km)", number(veh.Summary.AvgEnergyConsumption)},
			{"Cost per km", number(veh.Summary.CostPerKm)},
		},
	}

	monthly := Table{Name: "Monthly", Header: []string{"Month", "Income", "Expenses", "Profit"}}
	for _, m := range fin.Monthly {
		monthly.Rows = append(monthly.Rows, []any{m.Month, number(m.Income), number(m.Expenses), number(m.Profit)})
	}

	platforms := Table{Name: "Platforms", Header: []string{"Platform", "Total", "Share %"}}
	for _, p := range fin.Platforms {
		platforms.Rows = append(platforms.Rows, []any{p.PlatformName, number(p.Total), pct(p.Percentage)})
	}

	categories := Table{Name: "Categories", Header: []string{"Category", "Total", "Share %"}}
	for _, c := range fin.Categories {
		categories.Rows = append(categories.Rows, []any{string(c.Category), number(c.Total), pct(c.Percentage)})
	}

	distance := Table{Name: "Distance", Header: []string{"Date", "Distance (km)"}}
	for _, d := range veh.Distance {
		distance.Rows = append(distance.Rows, []any{d.Date.String(), number(d.DistanceKm)})
	}

	fuel := Table{Name: "Fuel", Header: []string{"Date", "Fuel (L)", "Energy (kWh)", "Value", "Unit"}}
	for _, f := range veh.Fuel {
		fuel.Rows = append(fuel.Rows, []any{f.Date.String(), number(f.FuelLiters), number(f.EnergyKwh), number(f.Value), f.Unit})
	}

	maintenance := Table{Name: "Maintenance", Header: []string{"Type", "Count", "Total", "Share %"}}
	for _, m := range r.Maintenance {
		maintenance.Rows = append(maintenance.Rows, []any{string(m.Type), m.Count, number(m.Total), pct(m.Percentage)})
	}

	return []Table{summary, monthly, platforms, categories, distance, fuel, maintenance}
}

func number(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}

func pct(p float64) float64 {
	return math.Round(p*100) / 100
}

var unsafeTitle = regexp.MustCompile(`[\[\]:*?/\\']`)

// Title names an export, e.g. "Ana 2024-03-01..2024-03-31". Characters
// spreadsheet tabs reject are dropped and long names are cut to fit the
// 100 character tab limit.
func Title(r core.ReportExport) string {
	name := strings.TrimSpace(unsafeTitle.ReplaceAllString(r.User.Name, ""))
	if name == "" {
		name = r.User.ID
	}
	period := fmt.Sprintf(" %s..%s", r.From, r.To)
	if runes := []rune(name); len(runes)+len(period) > 100 {
		name = string(runes[:100-len(period)])
	}
	return name + period
}
