package xlsx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gigtrack/internal/core"
)

func sampleExport() core.ReportExport {
	uber := "p-uber"
	return core.ReportExport{
		User: core.User{ID: "driver-1", Name: "Ana", Currency: "EUR"},
		From: core.NewDate(2024, 3, 1),
		To:   core.NewDate(2024, 3, 31),
		Financial: core.FinancialDashboard{
			Summary: core.FinancialSummary{
				TotalIncome:  decimal.NewFromInt(350),
				TotalExpense: decimal.NewFromInt(100),
				Profit:       decimal.NewFromInt(250),
				IncomeCount:  3,
				ExpenseCount: 2,
			},
			Monthly: []core.MonthlyPoint{
				{Month: "2024-03", Income: decimal.NewFromInt(350), Expenses: decimal.NewFromInt(100), Profit: decimal.NewFromInt(250)},
			},
			Platforms: []core.PlatformBreakdown{
				{PlatformID: &uber, PlatformName: "Uber", Total: decimal.NewFromInt(300), Percentage: 85.714},
				{PlatformName: core.UnspecifiedPlatform, Total: decimal.NewFromInt(50), Percentage: 14.286},
			},
		},
		GeneratedAt: time.Date(2024, 4, 1, 3, 0, 0, 0, time.UTC),
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil)
	require.NoError(t, err)

	path, err := w.WriteReport(context.Background(), sampleExport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gigtrack_driver-1_2024-03-01_2024-03-31.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t,
		[]string{"Summary", "Monthly", "Platforms", "Categories", "Distance", "Fuel", "Maintenance"},
		f.GetSheetList())

	rows, err := f.GetRows("Platforms")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Platform", "Total", "Share %"}, rows[0])
	assert.Equal(t, []string{"Uber", "300", "85.71"}, rows[1])
	assert.Equal(t, []string{"Unspecified", "50", "14.29"}, rows[2])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Total income", "350"}, summary[5])

	categories, err := f.GetRows("Categories")
	require.NoError(t, err)
	assert.Len(t, categories, 1, "empty tables keep their header")
}

func TestWriteReportOverwrites(t *testing.T) {
	w, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	first, err := w.WriteReport(context.Background(), sampleExport())
	require.NoError(t, err)
	second, err := w.WriteReport(context.Background(), sampleExport())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWriteReportCancelled(t *testing.T) {
	w, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.WriteReport(ctx, sampleExport())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	r := sampleExport()
	r.User.ID = "../etc/passwd"
	assert.Equal(t, "gigtrack__etc_passwd_2024-03-01_2024-03-31.xlsx", FileName(r))

	r.User.ID = ""
	assert.Equal(t, "gigtrack_user_2024-03-01_2024-03-31.xlsx", FileName(r))
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("", nil)
	assert.EqualError(t, err, "missing export directory")
}
