// Package report implements the financial and vehicle usage aggregations.
//
// Every aggregation is a read-only function of a user id and a filter set.
// Records are fetched through the Source ports already scoped to the user
// and reduced in memory, so the behaviour does not depend on the store.
package report

import (
	"context"

	"gigtrack/internal/core"
)

// IncomeQuery selects a user's income rows. Zero dates leave that bound open.
type IncomeQuery struct {
	UserID     string
	From       core.Date
	To         core.Date
	PlatformID *string
}

// ExpenseQuery selects a user's expense rows.
type ExpenseQuery struct {
	UserID   string
	From     core.Date
	To       core.Date
	Category *core.ExpenseCategory
}

// VehicleQuery selects usage or maintenance rows through vehicle ownership.
type VehicleQuery struct {
	UserID    string
	From      core.Date
	To        core.Date
	VehicleID *string
}

// FinancialSource provides income, expense and platform rows.
type FinancialSource interface {
	ListIncomes(ctx context.Context, q IncomeQuery) ([]core.Income, error)
	ListExpenses(ctx context.Context, q ExpenseQuery) ([]core.Expense, error)
	ListPlatforms(ctx context.Context, userID string) ([]core.Platform, error)
}

// VehicleSource provides usage logs and maintenance rows. Implementations
// must only return rows whose vehicle belongs to q.UserID.
type VehicleSource interface {
	ListUsageLogs(ctx context.Context, q VehicleQuery) ([]core.UsageLog, error)
	ListMaintenance(ctx context.Context, q VehicleQuery) ([]core.Maintenance, error)
}

// Source is the full read model the aggregators need.
type Source interface {
	FinancialSource
	VehicleSource
}
