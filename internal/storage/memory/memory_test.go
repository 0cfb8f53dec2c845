package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigtrack/internal/core"
	"gigtrack/internal/report"
)

func TestStoreScopesVehicleRowsByOwner(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice, _ := s.CreateUser(ctx, core.User{Name: "Alice"})
	bob, _ := s.CreateUser(ctx, core.User{Name: "Bob"})
	car, err := s.CreateVehicle(ctx, core.Vehicle{UserID: bob.ID, Name: "Bob's car"})
	require.NoError(t, err)

	_, err = s.CreateUsageLog(ctx, core.UsageLog{VehicleID: car.ID, Date: core.NewDate(2024, 1, 2), DistanceKm: decimal.NewFromInt(10)})
	require.NoError(t, err)

	// Alice passes Bob's vehicle id explicitly; it must match nothing.
	rows, err := s.ListUsageLogs(ctx, report.VehicleQuery{UserID: alice.ID, VehicleID: &car.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = s.ListUsageLogs(ctx, report.VehicleQuery{UserID: bob.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStoreIncomeFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	u, _ := s.CreateUser(ctx, core.User{Name: "Dana"})
	p, _ := s.CreatePlatform(ctx, core.Platform{UserID: u.ID, Name: "Uber"})

	for _, in := range []core.Income{
		{UserID: u.ID, PlatformID: &p.ID, Amount: decimal.NewFromInt(10), Currency: "EUR", Date: core.NewDate(2024, 1, 1)},
		{UserID: u.ID, Amount: decimal.NewFromInt(20), Currency: "EUR", Date: core.NewDate(2024, 1, 31)},
		{UserID: u.ID, PlatformID: &p.ID, Amount: decimal.NewFromInt(30), Currency: "EUR", Date: core.NewDate(2024, 2, 1)},
	} {
		_, err := s.CreateIncome(ctx, in)
		require.NoError(t, err)
	}

	jan, err := s.ListIncomes(ctx, report.IncomeQuery{UserID: u.ID, From: core.NewDate(2024, 1, 1), To: core.NewDate(2024, 1, 31)})
	require.NoError(t, err)
	assert.Len(t, jan, 2)

	byPlatform, err := s.ListIncomes(ctx, report.IncomeQuery{UserID: u.ID, PlatformID: &p.ID})
	require.NoError(t, err)
	assert.Len(t, byPlatform, 2)

	other, err := s.ListIncomes(ctx, report.IncomeQuery{UserID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStoreUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	s := New()
	u, err := s.CreateUser(ctx, core.User{ID: "u-1", Name: "Eli"})
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, u.Role)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, s.CreateSession(ctx, core.Session{Token: "t", UserID: "nobody"}), core.ErrNotFound)
	require.NoError(t, s.CreateSession(ctx, core.Session{Token: "t", UserID: u.ID}))

	sess, err := s.LookupSession(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.UserID)
}

func TestStoreRejectsOrphanUsage(t *testing.T) {
	s := New()
	_, err := s.CreateUsageLog(context.Background(), core.UsageLog{VehicleID: "ghost", Date: core.NewDate(2024, 1, 1), DistanceKm: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
