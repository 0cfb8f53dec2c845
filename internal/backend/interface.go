package backend

import (
	"context"

	"gigtrack/internal/auth"
	"gigtrack/internal/core"
	"gigtrack/internal/report"
	"gigtrack/internal/seed"
)

// Backend is everything the binaries need from a store: the aggregation read
// model, identity lookups, seeding and health.
type Backend interface {
	report.Source
	auth.SessionStore
	seed.Writer
	ListUsers(ctx context.Context) ([]core.User, error)
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// SeedDemo loads the demo dataset after opening the store.
	SeedDemo bool
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
