package storage

import (
	"context"
	"fmt"

	"gigtrack/internal/core"
)

// Insert helpers. Rows are validated before they reach the database and get
// a UUID when no id is supplied.

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = newID(u.ID)
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	if u.Currency == "" {
		u.Currency = "EUR"
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, role, currency) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Name, u.Email, string(u.Role), u.Currency)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		s.Token, s.UserID, s.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreatePlatform(ctx context.Context, p core.Platform) (core.Platform, error) {
	p.ID = newID(p.ID)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO platforms (id, user_id, name, is_active) VALUES (?, ?, ?, ?)",
		p.ID, p.UserID, p.Name, p.IsActive)
	if err != nil {
		return core.Platform{}, fmt.Errorf("insert platform: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in.ID = newID(in.ID)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO incomes (id, user_id, platform_id, amount, currency, date, description) VALUES (?, ?, ?, ?, ?, ?, ?)",
		in.ID, in.UserID, in.PlatformID, in.Amount.String(), in.Currency, in.Date.String(), in.Description)
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, ex core.Expense) (core.Expense, error) {
	if err := ex.Validate(); err != nil {
		return core.Expense{}, err
	}
	ex.ID = newID(ex.ID)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses (id, user_id, category, amount, currency, date, description) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ex.ID, ex.UserID, string(ex.Category), ex.Amount.String(), ex.Currency, ex.Date.String(), ex.Description)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return ex, nil
}

func (r *SQLiteRepository) CreateVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	v.ID = newID(v.ID)
	if v.Type == "" {
		v.Type = core.VehicleCar
	}
	if v.FuelType == "" {
		v.FuelType = core.FuelGasoline
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO vehicles (id, user_id, name, type, fuel_type, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		v.ID, v.UserID, v.Name, string(v.Type), string(v.FuelType), v.IsActive)
	if err != nil {
		return core.Vehicle{}, fmt.Errorf("insert vehicle: %w", err)
	}
	return v, nil
}

func (r *SQLiteRepository) CreateUsageLog(ctx context.Context, u core.UsageLog) (core.UsageLog, error) {
	if err := u.Validate(); err != nil {
		return core.UsageLog{}, err
	}
	u.ID = newID(u.ID)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO usage_logs (id, vehicle_id, date, distance_km, fuel_liters, energy_kwh, notes) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.VehicleID, u.Date.String(), u.DistanceKm.String(), decimalArg(u.FuelLiters), decimalArg(u.EnergyKwh), u.Notes)
	if err != nil {
		return core.UsageLog{}, fmt.Errorf("insert usage log: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateMaintenance(ctx context.Context, m core.Maintenance) (core.Maintenance, error) {
	if err := m.Validate(); err != nil {
		return core.Maintenance{}, err
	}
	m.ID = newID(m.ID)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO maintenance_records (id, vehicle_id, date, type, cost, currency, mileage, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.VehicleID, m.Date.String(), string(m.Type), decimalArg(m.Cost), m.Currency, m.Mileage, m.Notes)
	if err != nil {
		return core.Maintenance{}, fmt.Errorf("insert maintenance: %w", err)
	}
	return m, nil
}
