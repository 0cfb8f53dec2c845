package backend

import (
	"context"
	"fmt"
	"time"

	"gigtrack/internal/log"
	"gigtrack/internal/seed"
	"gigtrack/internal/storage"
	"gigtrack/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	now    func() time.Time
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		now:    time.Now,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.SeedDemo {
		if err := f.seed(ctx, res.Backend); err != nil {
			if res.Cleanup != nil {
				_ = res.Cleanup()
			}
			return nil, err
		}
	}
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	store := memory.New()
	f.logger.InfoContext(ctx, "Initialized memory backend")
	return &BackendResult{Backend: store}, nil
}

func (f *DefaultFactory) seed(ctx context.Context, b Backend) error {
	res, err := seed.Demo(ctx, b, f.now())
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	if res.Skipped {
		f.logger.InfoContext(ctx, "Demo data already present")
		return nil
	}
	f.logger.InfoContext(ctx, "Seeded demo data",
		"incomes", res.Incomes,
		"expenses", res.Expenses,
		"usage_logs", res.UsageLogs,
		"maintenance", res.Maintenance)
	return nil
}
