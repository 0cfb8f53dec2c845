package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigtrack/internal/core"
	"gigtrack/internal/report"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "gigtrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path), "second run is a no-op")

	v, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
	assert.False(t, dirty)

	require.NoError(t, RollbackMigrations(path, 1))
	v, _, err = MigrationVersion(path)
	require.NoError(t, err)
	assert.Zero(t, v)

	assert.Error(t, RollbackMigrations(path, 0))
}

func TestRepositoryFinancialQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u, err := repo.CreateUser(ctx, core.User{Name: "Robin", Email: "robin@example.com"})
	require.NoError(t, err)
	other, err := repo.CreateUser(ctx, core.User{Name: "Kai"})
	require.NoError(t, err)
	p, err := repo.CreatePlatform(ctx, core.Platform{UserID: u.ID, Name: "DoorDash", IsActive: true})
	require.NoError(t, err)

	note := "tips"
	rows := []core.Income{
		{UserID: u.ID, PlatformID: &p.ID, Amount: decimal.RequireFromString("120.35"), Currency: "USD", Date: core.NewDate(2024, 1, 15), Description: &note},
		{UserID: u.ID, Amount: decimal.RequireFromString("10"), Currency: "USD", Date: core.NewDate(2024, 2, 1)},
		{UserID: other.ID, Amount: decimal.RequireFromString("999"), Currency: "USD", Date: core.NewDate(2024, 1, 15)},
	}
	for _, in := range rows {
		_, err := repo.CreateIncome(ctx, in)
		require.NoError(t, err)
	}
	_, err = repo.CreateExpense(ctx, core.Expense{UserID: u.ID, Category: core.CategoryTolls, Amount: decimal.RequireFromString("3.10"), Currency: "USD", Date: core.NewDate(2024, 1, 31)})
	require.NoError(t, err)

	incomes, err := repo.ListIncomes(ctx, report.IncomeQuery{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, incomes, 2)
	assert.True(t, incomes[0].Amount.Equal(decimal.RequireFromString("120.35")))
	require.NotNil(t, incomes[0].PlatformID)
	assert.Equal(t, p.ID, *incomes[0].PlatformID)
	require.NotNil(t, incomes[0].Description)
	assert.Equal(t, "tips", *incomes[0].Description)
	assert.Nil(t, incomes[1].PlatformID)

	jan, err := repo.ListIncomes(ctx, report.IncomeQuery{UserID: u.ID, From: core.NewDate(2024, 1, 1), To: core.NewDate(2024, 1, 31)})
	require.NoError(t, err)
	assert.Len(t, jan, 1)

	tolls := core.CategoryTolls
	expenses, err := repo.ListExpenses(ctx, report.ExpenseQuery{UserID: u.ID, Category: &tolls, To: core.NewDate(2024, 1, 31)})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "2024-01-31", expenses[0].Date.String())

	platforms, err := repo.ListPlatforms(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, platforms, 1)
	assert.True(t, platforms[0].IsActive)
}

func TestRepositoryRangeMatchesTimestampDates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u, err := repo.CreateUser(ctx, core.User{Name: "Robin"})
	require.NoError(t, err)
	car, err := repo.CreateVehicle(ctx, core.Vehicle{UserID: u.ID, Name: "Corolla", FuelType: core.FuelGasoline, IsActive: true})
	require.NoError(t, err)

	// Rows written by other clients may carry a full timestamp.
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO incomes (id, user_id, amount, currency, date) VALUES
		 ('i1', ?, '40', 'EUR', '2024-01-15T10:00:00Z'),
		 ('i2', ?, '5', 'EUR', '2024-01-15T23:30:00-05:00')`, u.ID, u.ID)
	require.NoError(t, err)
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO usage_logs (id, vehicle_id, date, distance_km) VALUES ('l1', ?, '2024-01-15T08:00:00Z', '12')`, car.ID)
	require.NoError(t, err)

	day := core.NewDate(2024, 1, 15)
	incomes, err := repo.ListIncomes(ctx, report.IncomeQuery{UserID: u.ID, From: day, To: day})
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, "i1", incomes[0].ID)
	assert.Equal(t, "2024-01-15", incomes[0].Date.String())

	// -05:00 late evening is already the next UTC day.
	next := core.NewDate(2024, 1, 16)
	incomes, err = repo.ListIncomes(ctx, report.IncomeQuery{UserID: u.ID, From: next, To: next})
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, "i2", incomes[0].ID)

	usage, err := repo.ListUsageLogs(ctx, report.VehicleQuery{UserID: u.ID, From: day, To: day})
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, "2024-01-15", usage[0].Date.String())
}

func TestRepositoryVehicleScoping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	owner, _ := repo.CreateUser(ctx, core.User{Name: "Owner"})
	intruder, _ := repo.CreateUser(ctx, core.User{Name: "Intruder"})
	car, err := repo.CreateVehicle(ctx, core.Vehicle{UserID: owner.ID, Name: "Model 3", FuelType: core.FuelElectric, IsActive: true})
	require.NoError(t, err)

	_, err = repo.CreateUsageLog(ctx, core.UsageLog{VehicleID: car.ID, Date: core.NewDate(2024, 3, 1), DistanceKm: decimal.NewFromInt(80), EnergyKwh: decPtr("12.5")})
	require.NoError(t, err)
	mileage := int64(12000)
	_, err = repo.CreateMaintenance(ctx, core.Maintenance{VehicleID: car.ID, Date: core.NewDate(2024, 3, 2), Type: core.MaintenanceTires, Cost: decPtr("250"), Currency: "EUR", Mileage: &mileage})
	require.NoError(t, err)

	q := report.VehicleQuery{UserID: owner.ID, From: core.NewDate(2024, 3, 1), To: core.NewDate(2024, 3, 31)}
	usage, err := repo.ListUsageLogs(ctx, q)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Nil(t, usage[0].FuelLiters)
	require.NotNil(t, usage[0].EnergyKwh)
	assert.True(t, usage[0].EnergyKwh.Equal(decimal.RequireFromString("12.5")))

	maint, err := repo.ListMaintenance(ctx, q)
	require.NoError(t, err)
	require.Len(t, maint, 1)
	require.NotNil(t, maint[0].Mileage)
	assert.EqualValues(t, 12000, *maint[0].Mileage)

	stolen := report.VehicleQuery{UserID: intruder.ID, VehicleID: &car.ID}
	usage, err = repo.ListUsageLogs(ctx, stolen)
	require.NoError(t, err)
	assert.Empty(t, usage)
	maint, err = repo.ListMaintenance(ctx, stolen)
	require.NoError(t, err)
	assert.Empty(t, maint)
}

func TestRepositoryUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	admin, err := repo.CreateUser(ctx, core.User{ID: "admin-1", Name: "Ops", Role: core.RoleAdmin, Currency: "GBP"})
	require.NoError(t, err)

	ok, err := repo.UserExists(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.UserExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetUser(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, got.Role)
	assert.Equal(t, "GBP", got.Currency)

	_, err = repo.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.CreateSession(ctx, core.Session{Token: "tok", UserID: admin.ID, ExpiresAt: expires}))
	sess, err := repo.LookupSession(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, sess.UserID)
	assert.True(t, sess.ExpiresAt.Equal(expires))

	_, err = repo.LookupSession(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	require.NoError(t, repo.Ping(ctx))
}

func TestRepositoryRejectsInvalidRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.CreateExpense(ctx, core.Expense{UserID: "u", Category: "snacks", Amount: decimal.NewFromInt(1), Currency: "EUR", Date: core.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
}
