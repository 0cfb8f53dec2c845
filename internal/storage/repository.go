package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gigtrack/internal/core"
	"gigtrack/internal/report"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the relational read model behind the aggregators. It
// also carries the insert helpers used by seeding.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks database reachability for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// filter accumulates AND-ed predicates and their arguments.
type filter struct {
	clauses []string
	args    []any
}

func (f *filter) add(clause string, arg any) {
	f.clauses = append(f.clauses, clause)
	f.args = append(f.args, arg)
}

// dateRange bounds the UTC calendar date of column, so rows written as
// RFC3339 timestamps match the same day they are read back as.
func (f *filter) dateRange(column string, from, to core.Date) {
	if !from.IsEmpty() {
		f.add("date("+column+") >= ?", from.String())
	}
	if !to.IsEmpty() {
		f.add("date("+column+") <= ?", to.String())
	}
}

func (f *filter) where() string {
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, q report.IncomeQuery) ([]core.Income, error) {
	var f filter
	f.add("user_id = ?", q.UserID)
	f.dateRange("date", q.From, q.To)
	if q.PlatformID != nil {
		f.add("platform_id = ?", *q.PlatformID)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, platform_id, amount, currency, date, description FROM incomes"+f.where()+" ORDER BY date, id",
		f.args...)
	if err != nil {
		return nil, fmt.Errorf("query incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var (
			in                   core.Income
			platformID, descr    sql.NullString
			amount, currency, dt string
		)
		if err := rows.Scan(&in.ID, &in.UserID, &platformID, &amount, &currency, &dt, &descr); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if in.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("income %s amount: %w", in.ID, err)
		}
		if in.Date, err = core.ParseDate(dt); err != nil {
			return nil, fmt.Errorf("income %s date: %w", in.ID, err)
		}
		in.Currency = currency
		in.PlatformID = nullString(platformID)
		in.Description = nullString(descr)
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, q report.ExpenseQuery) ([]core.Expense, error) {
	var f filter
	f.add("user_id = ?", q.UserID)
	f.dateRange("date", q.From, q.To)
	if q.Category != nil {
		f.add("category = ?", string(*q.Category))
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, category, amount, currency, date, description FROM expenses"+f.where()+" ORDER BY date, id",
		f.args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			ex                             core.Expense
			descr                          sql.NullString
			category, amount, currency, dt string
		)
		if err := rows.Scan(&ex.ID, &ex.UserID, &category, &amount, &currency, &dt, &descr); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if ex.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("expense %s amount: %w", ex.ID, err)
		}
		if ex.Date, err = core.ParseDate(dt); err != nil {
			return nil, fmt.Errorf("expense %s date: %w", ex.ID, err)
		}
		ex.Category = core.ExpenseCategory(category)
		ex.Currency = currency
		ex.Description = nullString(descr)
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListPlatforms(ctx context.Context, userID string) ([]core.Platform, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, name, is_active FROM platforms WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("query platforms: %w", err)
	}
	defer rows.Close()

	var out []core.Platform
	for rows.Next() {
		var p core.Platform
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// vehicleFilter scopes rows through vehicles.user_id, never through a
// client-supplied vehicle id alone.
func vehicleFilter(q report.VehicleQuery, alias string) filter {
	var f filter
	f.add("v.user_id = ?", q.UserID)
	f.dateRange(alias+".date", q.From, q.To)
	if q.VehicleID != nil {
		f.add(alias+".vehicle_id = ?", *q.VehicleID)
	}
	return f
}

func (r *SQLiteRepository) ListUsageLogs(ctx context.Context, q report.VehicleQuery) ([]core.UsageLog, error) {
	f := vehicleFilter(q, "u")
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.vehicle_id, u.date, u.distance_km, u.fuel_liters, u.energy_kwh, u.notes
		 FROM usage_logs u JOIN vehicles v ON v.id = u.vehicle_id`+f.where()+" ORDER BY u.date, u.id",
		f.args...)
	if err != nil {
		return nil, fmt.Errorf("query usage logs: %w", err)
	}
	defer rows.Close()

	var out []core.UsageLog
	for rows.Next() {
		var (
			u            core.UsageLog
			dt, distance string
			fuel, energy sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.VehicleID, &dt, &distance, &fuel, &energy, &u.Notes); err != nil {
			return nil, fmt.Errorf("scan usage log: %w", err)
		}
		if u.Date, err = core.ParseDate(dt); err != nil {
			return nil, fmt.Errorf("usage log %s date: %w", u.ID, err)
		}
		if u.DistanceKm, err = decimal.NewFromString(distance); err != nil {
			return nil, fmt.Errorf("usage log %s distance: %w", u.ID, err)
		}
		if u.FuelLiters, err = nullDecimal(fuel); err != nil {
			return nil, fmt.Errorf("usage log %s fuel: %w", u.ID, err)
		}
		if u.EnergyKwh, err = nullDecimal(energy); err != nil {
			return nil, fmt.Errorf("usage log %s energy: %w", u.ID, err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListMaintenance(ctx context.Context, q report.VehicleQuery) ([]core.Maintenance, error) {
	f := vehicleFilter(q, "m")
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.vehicle_id, m.date, m.type, m.cost, m.currency, m.mileage, m.notes
		 FROM maintenance_records m JOIN vehicles v ON v.id = m.vehicle_id`+f.where()+" ORDER BY m.date, m.id",
		f.args...)
	if err != nil {
		return nil, fmt.Errorf("query maintenance: %w", err)
	}
	defer rows.Close()

	var out []core.Maintenance
	for rows.Next() {
		var (
			m        core.Maintenance
			dt, kind string
			cost     sql.NullString
			mileage  sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.VehicleID, &dt, &kind, &cost, &m.Currency, &mileage, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan maintenance: %w", err)
		}
		if m.Date, err = core.ParseDate(dt); err != nil {
			return nil, fmt.Errorf("maintenance %s date: %w", m.ID, err)
		}
		if m.Cost, err = nullDecimal(cost); err != nil {
			return nil, fmt.Errorf("maintenance %s cost: %w", m.ID, err)
		}
		m.Type = core.MaintenanceType(kind)
		if mileage.Valid {
			v := mileage.Int64
			m.Mileage = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE id = ?", userID).Scan(&n); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, userID string) (core.User, error) {
	var u core.User
	var role string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, role, currency FROM users WHERE id = ?", userID).
		Scan(&u.ID, &u.Name, &u.Email, &role, &u.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %s: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Role = core.Role(role)
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, email, role, currency FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.Currency); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = core.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

// LookupSession returns core.ErrNotFound for unknown tokens. Expiry is the
// caller's concern.
func (r *SQLiteRepository) LookupSession(ctx context.Context, token string) (core.Session, error) {
	var s core.Session
	err := r.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at FROM sessions WHERE token = ?", token).
		Scan(&s.Token, &s.UserID, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, core.ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("lookup session: %w", err)
	}
	return s, nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
