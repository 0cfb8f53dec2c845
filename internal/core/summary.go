package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnspecifiedPlatform labels income without a resolvable platform.
const UnspecifiedPlatform = "Unspecified"

const (
	UnitLiters = "L"
	UnitKwh    = "kWh"
)

// FinancialSummary totals income and expenses for a filter set.
type FinancialSummary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Profit       decimal.Decimal
	IncomeCount  int
	ExpenseCount int
}

// MonthlyPoint is one month of activity in a sparse series.
type MonthlyPoint struct {
	Month    string // YYYY-MM
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Profit   decimal.Decimal
}

// PlatformBreakdown is income grouped by platform. PlatformID is nil for the
// unspecified group.
type PlatformBreakdown struct {
	PlatformID   *string
	PlatformName string
	Total        decimal.Decimal
	Percentage   float64
}

type CategoryBreakdown struct {
	Category   ExpenseCategory
	Total      decimal.Decimal
	Percentage float64
}

// VehicleSummary holds usage totals and ratios derived from them. Every ratio
// is 0 when TotalDistance is 0.
type VehicleSummary struct {
	TotalDistance        decimal.Decimal
	TotalFuel            decimal.Decimal
	TotalEnergy          decimal.Decimal
	TotalMaintenanceCost decimal.Decimal
	AvgFuelEconomy       decimal.Decimal // L/100km
	AvgEnergyConsumption decimal.Decimal // kWh/100km
	CostPerKm            decimal.Decimal
	UsageCount           int
	MaintenanceCount     int
}

type DailyDistancePoint struct {
	Date       Date
	DistanceKm decimal.Decimal
}

// DailyFuelPoint keeps liters and kWh apart. Value mirrors whichever one Unit names.
type DailyFuelPoint struct {
	Date       Date
	FuelLiters decimal.Decimal
	EnergyKwh  decimal.Decimal
	Value      decimal.Decimal
	Unit       string
}

type CostPerKm struct {
	TotalMaintenanceCost decimal.Decimal
	TotalDistance        decimal.Decimal
	CostPerKm            decimal.Decimal
}

type MaintenanceBreakdown struct {
	Type       MaintenanceType
	Total      decimal.Decimal
	Count      int
	Percentage float64
}

// FinancialDashboard merges the four financial aggregations.
type FinancialDashboard struct {
	Summary    FinancialSummary
	Monthly    []MonthlyPoint
	Platforms  []PlatformBreakdown
	Categories []CategoryBreakdown
}

type VehicleDashboard struct {
	Summary   VehicleSummary
	Distance  []DailyDistancePoint
	Fuel      []DailyFuelPoint
	CostPerKm CostPerKm
}

// ReportExport is the payload handed to report writers.
type ReportExport struct {
	User        User
	From        Date
	To          Date
	Financial   FinancialDashboard
	Vehicle     VehicleDashboard
	Maintenance []MaintenanceBreakdown
	GeneratedAt time.Time
}
