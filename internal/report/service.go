package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

var hundred = decimal.NewFromInt(100)

// ratioScale is the number of decimal places kept on derived ratios.
const ratioScale = 4

// Recorder receives the outcome of each aggregation, e.g. for metrics.
type Recorder interface {
	ObserveAggregation(op string, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAggregation(string, time.Duration, error) {}

// Service runs aggregations against a Source.
type Service struct {
	src      Source
	logger   *log.Logger
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder attaches an aggregation observer.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates a report service. A nil logger discards output.
func NewService(src Source, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Service{
		src:      src,
		logger:   logger.WithComponent(log.ComponentReport),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// observe records duration and logs failures. Validation failures are caller
// mistakes and logged at debug level.
func (s *Service) observe(ctx context.Context, op, userID string, started time.Time, err error) {
	d := time.Since(started)
	s.recorder.ObserveAggregation(op, d, err)

	fields := log.NewFields().WithOperation(op).WithUser(userID).WithDuration(d)
	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "Aggregation completed", fields.ToSlice()...)
	case core.IsValidation(err):
		s.logger.DebugContext(ctx, "Aggregation rejected", fields.WithError(err).WithErrorType(log.ErrorTypeValidation).ToSlice()...)
	default:
		s.logger.ErrorContext(ctx, "Aggregation failed", fields.WithError(err).WithErrorType(log.ErrorTypeDatabase).ToSlice()...)
	}
}

// percentage returns part as a share of whole in [0,100], 0 when whole is 0.
func percentage(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).InexactFloat64()
}

// ratio returns num*scale/den, 0 when den is not positive.
func ratio(num, den, scale decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Mul(scale).DivRound(den, ratioScale)
}
