package report_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigtrack/internal/core"
	"gigtrack/internal/report"
	"gigtrack/internal/storage/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fixture struct {
	store *memory.Store
	svc   *report.Service
	user  core.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	u, err := store.CreateUser(context.Background(), core.User{ID: "driver-1", Name: "Sam", Currency: "EUR"})
	require.NoError(t, err)
	return &fixture{store: store, svc: report.NewService(store, nil), user: u}
}

func (f *fixture) income(t *testing.T, amount string, day core.Date, platformID *string) {
	t.Helper()
	_, err := f.store.CreateIncome(context.Background(), core.Income{
		UserID: f.user.ID, PlatformID: platformID, Amount: dec(amount), Currency: "EUR", Date: day,
	})
	require.NoError(t, err)
}

func (f *fixture) expense(t *testing.T, amount string, day core.Date, cat core.ExpenseCategory) {
	t.Helper()
	_, err := f.store.CreateExpense(context.Background(), core.Expense{
		UserID: f.user.ID, Category: cat, Amount: dec(amount), Currency: "EUR", Date: day,
	})
	require.NoError(t, err)
}

func TestFinancialSummaryEmpty(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.FinancialSummary(context.Background(), f.user.ID, report.FinancialFilters{})
	require.NoError(t, err)

	assert.True(t, got.TotalIncome.IsZero())
	assert.True(t, got.TotalExpense.IsZero())
	assert.True(t, got.Profit.IsZero())
	assert.Zero(t, got.IncomeCount)
	assert.Zero(t, got.ExpenseCount)
}

func TestFinancialSummaryAsymmetricFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uber := "p-uber"
	f.income(t, "100", core.NewDate(2024, 3, 1), &uber)
	f.income(t, "40.50", core.NewDate(2024, 3, 2), nil)
	f.expense(t, "30", core.NewDate(2024, 3, 3), core.CategoryFuel)
	f.expense(t, "200.25", core.NewDate(2024, 3, 4), core.CategoryInsurance)

	cases := []struct {
		name        string
		filters     report.FinancialFilters
		income      string
		expense     string
		profit      string
		incomeRows  int
		expenseRows int
	}{
		{"no filters", report.FinancialFilters{}, "140.5", "230.25", "-89.75", 2, 2},
		{"platform narrows income only", report.FinancialFilters{PlatformID: &uber}, "100", "230.25", "-130.25", 1, 2},
		{"category narrows expenses only", report.FinancialFilters{Category: ptrCat(core.CategoryFuel)}, "140.5", "30", "110.5", 2, 1},
		{"inclusive range", report.FinancialFilters{StartDate: core.NewDate(2024, 3, 2), EndDate: core.NewDate(2024, 3, 3)}, "40.5", "30", "10.5", 1, 1},
		{"inverted range is empty", report.FinancialFilters{StartDate: core.NewDate(2024, 4, 1), EndDate: core.NewDate(2024, 3, 1)}, "0", "0", "0", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.svc.FinancialSummary(ctx, f.user.ID, tc.filters)
			require.NoError(t, err)
			assert.True(t, got.TotalIncome.Equal(dec(tc.income)), "income %s", got.TotalIncome)
			assert.True(t, got.TotalExpense.Equal(dec(tc.expense)), "expense %s", got.TotalExpense)
			assert.True(t, got.Profit.Equal(dec(tc.profit)), "profit %s", got.Profit)
			assert.True(t, got.Profit.Equal(got.TotalIncome.Sub(got.TotalExpense)))
			assert.Equal(t, tc.incomeRows, got.IncomeCount)
			assert.Equal(t, tc.expenseRows, got.ExpenseCount)
		})
	}
}

func ptrCat(c core.ExpenseCategory) *core.ExpenseCategory { return &c }

func TestFinancialSummaryIgnoresOtherUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, _ := f.store.CreateUser(ctx, core.User{ID: "driver-2"})
	_, err := f.store.CreateIncome(ctx, core.Income{UserID: other.ID, Amount: dec("999"), Currency: "EUR", Date: core.NewDate(2024, 1, 1)})
	require.NoError(t, err)
	f.income(t, "1", core.NewDate(2024, 1, 1), nil)

	got, err := f.svc.FinancialSummary(ctx, f.user.ID, report.FinancialFilters{})
	require.NoError(t, err)
	assert.True(t, got.TotalIncome.Equal(dec("1")))
}

func TestMonthlyDataSparseAscending(t *testing.T) {
	f := newFixture(t)
	f.income(t, "50", core.NewDate(2024, 2, 10), nil)
	f.income(t, "100", core.NewDate(2024, 1, 15), nil)

	got, err := f.svc.MonthlyData(context.Background(), f.user.ID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-01", got[0].Month)
	assert.True(t, got[0].Income.Equal(dec("100")))
	assert.True(t, got[0].Expenses.IsZero())
	assert.True(t, got[0].Profit.Equal(dec("100")))
	assert.Equal(t, "2024-02", got[1].Month)
	assert.True(t, got[1].Income.Equal(dec("50")))
	assert.True(t, got[1].Profit.Equal(dec("50")))
}

func TestMonthlyDataSkipsQuietMonths(t *testing.T) {
	f := newFixture(t)
	f.income(t, "10", core.NewDate(2023, 12, 31), nil)
	f.expense(t, "4", core.NewDate(2024, 3, 1), core.CategoryParking)

	got, err := f.svc.MonthlyData(context.Background(), f.user.ID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2023-12", got[0].Month)
	assert.Equal(t, "2024-03", got[1].Month)
	assert.True(t, got[1].Profit.Equal(dec("-4")))
	for _, p := range got {
		assert.False(t, p.Income.IsZero() && p.Expenses.IsZero(), "month %s has no activity", p.Month)
	}
}

func TestMonthlyDataDropsZeroAmountMonths(t *testing.T) {
	f := newFixture(t)
	f.income(t, "0", core.NewDate(2024, 5, 3), nil)
	f.expense(t, "0", core.NewDate(2024, 5, 20), core.CategoryOther)
	f.income(t, "10", core.NewDate(2024, 6, 3), nil)
	f.expense(t, "0", core.NewDate(2024, 7, 1), core.CategoryFood)

	got, err := f.svc.MonthlyData(context.Background(), f.user.ID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-06", got[0].Month)
	assert.True(t, got[0].Income.Equal(dec("10")))
}

func TestIncomeByPlatform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.CreatePlatform(ctx, core.Platform{UserID: f.user.ID, Name: "Bolt", IsActive: true})
	require.NoError(t, err)
	f.income(t, "60", core.NewDate(2024, 1, 1), &a.ID)
	f.income(t, "40", core.NewDate(2024, 1, 2), nil)

	got, err := f.svc.IncomeByPlatform(ctx, f.user.ID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Bolt", got[0].PlatformName)
	require.NotNil(t, got[0].PlatformID)
	assert.Equal(t, a.ID, *got[0].PlatformID)
	assert.True(t, got[0].Total.Equal(dec("60")))
	assert.InDelta(t, 60.0, got[0].Percentage, 1e-9)

	assert.Nil(t, got[1].PlatformID)
	assert.Equal(t, core.UnspecifiedPlatform, got[1].PlatformName)
	assert.InDelta(t, 40.0, got[1].Percentage, 1e-9)
}

func TestIncomeByPlatformUnknownIDAndTies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	z, _ := f.store.CreatePlatform(ctx, core.Platform{UserID: f.user.ID, Name: "Zoom"})
	a, _ := f.store.CreatePlatform(ctx, core.Platform{UserID: f.user.ID, Name: "Acme"})
	gone, alsoGone := "deleted-platform", "other-deleted-platform"
	f.income(t, "10", core.NewDate(2024, 1, 1), &z.ID)
	f.income(t, "10", core.NewDate(2024, 1, 1), &a.ID)
	f.income(t, "2", core.NewDate(2024, 1, 1), &gone)
	f.income(t, "2", core.NewDate(2024, 1, 2), &alsoGone)
	f.income(t, "1", core.NewDate(2024, 1, 3), nil)

	got, err := f.svc.IncomeByPlatform(ctx, f.user.ID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, got, 3, "unresolved ids share the unspecified group")
	assert.Equal(t, "Acme", got[0].PlatformName)
	assert.Equal(t, "Zoom", got[1].PlatformName)
	assert.Equal(t, core.UnspecifiedPlatform, got[2].PlatformName)
	assert.Nil(t, got[2].PlatformID)
	assert.True(t, got[2].Total.Equal(dec("5")))

	var sum float64
	for _, g := range got {
		sum += g.Percentage
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestExpensesByCategory(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "1", core.NewDate(2024, 1, 1), core.CategoryFood)
	f.expense(t, "1", core.NewDate(2024, 1, 2), core.CategoryFood)
	f.expense(t, "1", core.NewDate(2024, 1, 3), core.CategoryTolls)

	got, err := f.svc.ExpensesByCategory(context.Background(), f.user.ID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.CategoryFood, got[0].Category)
	assert.InDelta(t, 66.6666, got[0].Percentage, 1e-3)
	assert.Equal(t, core.CategoryTolls, got[1].Category)
	assert.InDelta(t, 100.0, got[0].Percentage+got[1].Percentage, 1e-6)
}

func TestBreakdownsZeroGrandTotal(t *testing.T) {
	f := newFixture(t)
	f.income(t, "0", core.NewDate(2024, 1, 1), nil)
	f.expense(t, "0", core.NewDate(2024, 1, 1), core.CategoryOther)

	platforms, err := f.svc.IncomeByPlatform(context.Background(), f.user.ID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, platforms, 1)
	assert.Zero(t, platforms[0].Percentage)

	cats, err := f.svc.ExpensesByCategory(context.Background(), f.user.ID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Zero(t, cats[0].Percentage)
}

func TestMissingUserIsValidationError(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.FinancialSummary(context.Background(), "", report.FinancialFilters{})
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "userId", ve.Field)
}

// failingSource fails every call and counts them.
type failingSource struct {
	err   error
	calls atomic.Int32
}

func (f *failingSource) ListIncomes(context.Context, report.IncomeQuery) ([]core.Income, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingSource) ListExpenses(context.Context, report.ExpenseQuery) ([]core.Expense, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingSource) ListPlatforms(context.Context, string) ([]core.Platform, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingSource) ListUsageLogs(context.Context, report.VehicleQuery) ([]core.UsageLog, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingSource) ListMaintenance(context.Context, report.VehicleQuery) ([]core.Maintenance, error) {
	f.calls.Add(1)
	return nil, f.err
}

type recordedOp struct {
	op  string
	err error
}

type captureRecorder struct{ ops []recordedOp }

func (c *captureRecorder) ObserveAggregation(op string, _ time.Duration, err error) {
	c.ops = append(c.ops, recordedOp{op, err})
}

func TestStorageErrorPropagates(t *testing.T) {
	boom := errors.New("database is locked")
	src := &failingSource{err: boom}
	rec := &captureRecorder{}
	svc := report.NewService(src, nil, report.WithRecorder(rec))

	_, err := svc.FinancialSummary(context.Background(), "u", report.FinancialFilters{})
	require.ErrorIs(t, err, boom)
	assert.False(t, core.IsValidation(err))
	require.Len(t, rec.ops, 1)
	assert.Equal(t, "financial_summary", rec.ops[0].op)
	assert.ErrorIs(t, rec.ops[0].err, boom)
}
