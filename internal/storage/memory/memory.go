// Package memory provides an in-process store with the same read model as
// the SQLite repository. It backs tests and the demo backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gigtrack/internal/core"
	"gigtrack/internal/report"
)

type Store struct {
	mu          sync.RWMutex
	users       map[string]core.User
	sessions    map[string]core.Session
	platforms   []core.Platform
	incomes     []core.Income
	expenses    []core.Expense
	vehicles    map[string]core.Vehicle
	usage       []core.UsageLog
	maintenance []core.Maintenance
}

func New() *Store {
	return &Store{
		users:    make(map[string]core.User),
		sessions: make(map[string]core.Session),
		vehicles: make(map[string]core.Vehicle),
	}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	u.ID = newID(u.ID)
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) CreateSession(_ context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[sess.UserID]; !ok {
		return fmt.Errorf("session user %s: %w", sess.UserID, core.ErrNotFound)
	}
	s.sessions[sess.Token] = sess
	return nil
}

func (s *Store) CreatePlatform(_ context.Context, p core.Platform) (core.Platform, error) {
	p.ID = newID(p.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platforms = append(s.platforms, p)
	return p, nil
}

func (s *Store) CreateIncome(_ context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in.ID = newID(in.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = append(s.incomes, in)
	return in, nil
}

func (s *Store) CreateExpense(_ context.Context, ex core.Expense) (core.Expense, error) {
	if err := ex.Validate(); err != nil {
		return core.Expense{}, err
	}
	ex.ID = newID(ex.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, ex)
	return ex, nil
}

func (s *Store) CreateVehicle(_ context.Context, v core.Vehicle) (core.Vehicle, error) {
	v.ID = newID(v.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
	return v, nil
}

func (s *Store) CreateUsageLog(_ context.Context, u core.UsageLog) (core.UsageLog, error) {
	if err := u.Validate(); err != nil {
		return core.UsageLog{}, err
	}
	u.ID = newID(u.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[u.VehicleID]; !ok {
		return core.UsageLog{}, fmt.Errorf("vehicle %s: %w", u.VehicleID, core.ErrNotFound)
	}
	s.usage = append(s.usage, u)
	return u, nil
}

func (s *Store) CreateMaintenance(_ context.Context, m core.Maintenance) (core.Maintenance, error) {
	if err := m.Validate(); err != nil {
		return core.Maintenance{}, err
	}
	m.ID = newID(m.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[m.VehicleID]; !ok {
		return core.Maintenance{}, fmt.Errorf("vehicle %s: %w", m.VehicleID, core.ErrNotFound)
	}
	s.maintenance = append(s.maintenance, m)
	return m, nil
}

func (s *Store) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *Store) GetUser(_ context.Context, userID string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", userID, core.ErrNotFound)
	}
	return u, nil
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) LookupSession(_ context.Context, token string) (core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return core.Session{}, core.ErrNotFound
	}
	return sess, nil
}

func (s *Store) ListPlatforms(_ context.Context, userID string) ([]core.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Platform
	for _, p := range s.platforms {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListIncomes(_ context.Context, q report.IncomeQuery) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Income
	for _, in := range s.incomes {
		if in.UserID != q.UserID || !in.Date.Within(q.From, q.To) {
			continue
		}
		if q.PlatformID != nil && (in.PlatformID == nil || *in.PlatformID != *q.PlatformID) {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context, q report.ExpenseQuery) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, ex := range s.expenses {
		if ex.UserID != q.UserID || !ex.Date.Within(q.From, q.To) {
			continue
		}
		if q.Category != nil && ex.Category != *q.Category {
			continue
		}
		out = append(out, ex)
	}
	return out, nil
}

// owns reports whether vehicleID belongs to q.UserID and passes the vehicle filter.
// Callers hold the read lock.
func (s *Store) owns(q report.VehicleQuery, vehicleID string) bool {
	if q.VehicleID != nil && *q.VehicleID != vehicleID {
		return false
	}
	v, ok := s.vehicles[vehicleID]
	return ok && v.UserID == q.UserID
}

func (s *Store) ListUsageLogs(_ context.Context, q report.VehicleQuery) ([]core.UsageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.UsageLog
	for _, u := range s.usage {
		if s.owns(q, u.VehicleID) && u.Date.Within(q.From, q.To) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) ListMaintenance(_ context.Context, q report.VehicleQuery) ([]core.Maintenance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Maintenance
	for _, m := range s.maintenance {
		if s.owns(q, m.VehicleID) && m.Date.Within(q.From, q.To) {
			out = append(out, m)
		}
	}
	return out, nil
}
