// Package seed loads a deterministic demo dataset: one driver with two
// vehicles and sixty days of activity, plus an admin account.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gigtrack/internal/core"
)

const (
	DriverID    = "demo-driver"
	AdminID     = "demo-admin"
	DriverToken = "demo-driver-token"
	AdminToken  = "demo-admin-token"

	days     = 60
	currency = "EUR"
)

// Writer is the insert surface shared by the SQLite and memory stores.
type Writer interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	CreateSession(ctx context.Context, s core.Session) error
	CreatePlatform(ctx context.Context, p core.Platform) (core.Platform, error)
	CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
	CreateExpense(ctx context.Context, ex core.Expense) (core.Expense, error)
	CreateVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error)
	CreateUsageLog(ctx context.Context, u core.UsageLog) (core.UsageLog, error)
	CreateMaintenance(ctx context.Context, m core.Maintenance) (core.Maintenance, error)
}

// Result counts inserted rows.
type Result struct {
	Skipped     bool
	Users       int
	Incomes     int
	Expenses    int
	UsageLogs   int
	Maintenance int
}

// Demo inserts the dataset ending on the UTC day of now. It does nothing
// when the demo driver already exists.
func Demo(ctx context.Context, w Writer, now time.Time) (Result, error) {
	var res Result

	exists, err := w.UserExists(ctx, DriverID)
	if err != nil {
		return res, fmt.Errorf("check demo user: %w", err)
	}
	if exists {
		res.Skipped = true
		return res, nil
	}

	expires := now.Add(30 * 24 * time.Hour)
	for _, u := range []core.User{
		{ID: DriverID, Name: "Dana Driver", Email: "dana@example.com", Role: core.RoleUser, Currency: currency},
		{ID: AdminID, Name: "Alex Admin", Email: "alex@example.com", Role: core.RoleAdmin, Currency: currency},
	} {
		if _, err := w.CreateUser(ctx, u); err != nil {
			return res, err
		}
		res.Users++
	}
	for token, userID := range map[string]string{DriverToken: DriverID, AdminToken: AdminID} {
		if err := w.CreateSession(ctx, core.Session{Token: token, UserID: userID, ExpiresAt: expires}); err != nil {
			return res, err
		}
	}

	for _, p := range []core.Platform{
		{ID: "p-uber", UserID: DriverID, Name: "Uber", IsActive: true},
		{ID: "p-bolt", UserID: DriverID, Name: "Bolt", IsActive: true},
		{ID: "p-glovo", UserID: DriverID, Name: "Glovo", IsActive: false},
	} {
		if _, err := w.CreatePlatform(ctx, p); err != nil {
			return res, err
		}
	}

	for _, v := range []core.Vehicle{
		{ID: "v-car", UserID: DriverID, Name: "Toyota Corolla", Type: core.VehicleCar, FuelType: core.FuelGasoline, IsActive: true},
		{ID: "v-scooter", UserID: DriverID, Name: "Niu scooter", Type: core.VehicleScooter, FuelType: core.FuelElectric, IsActive: true},
	} {
		if _, err := w.CreateVehicle(ctx, v); err != nil {
			return res, err
		}
	}

	today := core.DateOf(now)
	for i := 0; i < days; i++ {
		day := core.DateOf(today.AddDate(0, 0, -i))
		if err := seedDay(ctx, w, day, i, &res); err != nil {
			return res, fmt.Errorf("seed %s: %w", day, err)
		}
	}

	for _, m := range maintenance(today) {
		m.Currency = currency
		if _, err := w.CreateMaintenance(ctx, m); err != nil {
			return res, err
		}
		res.Maintenance++
	}
	return res, nil
}

func seedDay(ctx context.Context, w Writer, day core.Date, i int, res *Result) error {
	uber, bolt := "p-uber", "p-bolt"
	working := day.Weekday() != time.Sunday

	var incomes []core.Income
	if working {
		incomes = append(incomes, core.Income{PlatformID: &uber, Amount: cents(8000 + int64(i%5)*1250)})
		if i%2 == 0 {
			incomes = append(incomes, core.Income{PlatformID: &bolt, Amount: cents(4500 + int64(i%3)*500)})
		}
	}
	if i%7 == 3 {
		tip := "Cash tips"
		incomes = append(incomes, core.Income{Amount: cents(1500), Description: &tip})
	}
	for _, in := range incomes {
		in.UserID, in.Currency, in.Date = DriverID, currency, day
		if _, err := w.CreateIncome(ctx, in); err != nil {
			return err
		}
		res.Incomes++
	}

	var expenses []core.Expense
	if i%4 == 0 {
		expenses = append(expenses, core.Expense{Category: core.CategoryFuel, Amount: cents(5540)})
	}
	if i%6 == 1 {
		expenses = append(expenses, core.Expense{Category: core.CategoryParking, Amount: cents(800)})
	}
	if i%9 == 2 {
		expenses = append(expenses, core.Expense{Category: core.CategoryCharging, Amount: cents(420)})
	}
	if day.Day() == 1 {
		expenses = append(expenses,
			core.Expense{Category: core.CategoryInsurance, Amount: cents(12000)},
			core.Expense{Category: core.CategoryPhone, Amount: cents(2500)})
	}
	for _, ex := range expenses {
		ex.UserID, ex.Currency, ex.Date = DriverID, currency, day
		if _, err := w.CreateExpense(ctx, ex); err != nil {
			return err
		}
		res.Expenses++
	}

	var logs []core.UsageLog
	if working {
		km := decimal.NewFromInt(120 + int64(i%4)*15)
		liters := km.Mul(decimal.RequireFromString("0.065")).Round(2)
		logs = append(logs, core.UsageLog{VehicleID: "v-car", DistanceKm: km, FuelLiters: &liters})
	}
	if i%3 == 0 {
		kwh := decimal.RequireFromString("1.2")
		logs = append(logs, core.UsageLog{VehicleID: "v-scooter", DistanceKm: decimal.NewFromInt(25), EnergyKwh: &kwh})
	}
	for _, l := range logs {
		l.Date = day
		if _, err := w.CreateUsageLog(ctx, l); err != nil {
			return err
		}
		res.UsageLogs++
	}
	return nil
}

func maintenance(today core.Date) []core.Maintenance {
	at := func(daysAgo int) core.Date { return core.DateOf(today.AddDate(0, 0, -daysAgo)) }
	cost := func(c int64) *decimal.Decimal {
		d := cents(c)
		return &d
	}
	odo := int64(84210)
	return []core.Maintenance{
		{VehicleID: "v-car", Date: at(45), Type: core.MaintenanceOilChange, Cost: cost(8990), Mileage: &odo},
		{VehicleID: "v-car", Date: at(20), Type: core.MaintenanceTires, Cost: cost(34000)},
		{VehicleID: "v-car", Date: at(30), Type: core.MaintenanceInspection, Notes: "covered by warranty"},
		{VehicleID: "v-car", Date: at(5), Type: core.MaintenanceCleaning, Cost: cost(1500)},
		{VehicleID: "v-scooter", Date: at(12), Type: core.MaintenanceBattery, Cost: cost(6000)},
	}
}

func cents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
