package report

import (
	"gigtrack/internal/core"
)

// FinancialFilters narrows the financial aggregations. PlatformID only
// affects income and Category only affects expenses.
type FinancialFilters struct {
	StartDate  core.Date
	EndDate    core.Date
	PlatformID *string
	Category   *core.ExpenseCategory
}

// VehicleFilters narrows the vehicle aggregations. Both dates are required.
type VehicleFilters struct {
	StartDate core.Date
	EndDate   core.Date
	VehicleID *string
}

// Validate fails when either bound is missing. Range ordering is not
// checked; an inverted range simply matches nothing.
func (f VehicleFilters) Validate() error {
	if f.StartDate.IsEmpty() {
		return core.NewValidationError("startDate", "is required")
	}
	if f.EndDate.IsEmpty() {
		return core.NewValidationError("endDate", "is required")
	}
	return nil
}

func (f FinancialFilters) incomeQuery(userID string) IncomeQuery {
	return IncomeQuery{UserID: userID, From: f.StartDate, To: f.EndDate, PlatformID: f.PlatformID}
}

func (f FinancialFilters) expenseQuery(userID string) ExpenseQuery {
	return ExpenseQuery{UserID: userID, From: f.StartDate, To: f.EndDate, Category: f.Category}
}

func (f VehicleFilters) query(userID string) VehicleQuery {
	return VehicleQuery{UserID: userID, From: f.StartDate, To: f.EndDate, VehicleID: f.VehicleID}
}

func requireUser(userID string) error {
	if userID == "" {
		return core.NewValidationError("userId", "is required")
	}
	return nil
}
