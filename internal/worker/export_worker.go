package worker

import (
	"context"
	"errors"
	"fmt"

	"gigtrack/internal/amqp"
	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

// Exporter writes one user's report export.
type Exporter interface {
	Export(ctx context.Context, userID string, from, to core.Date, format string) (string, error)
}

// Consumer delivers export messages until ctx ends.
type Consumer interface {
	ConsumeExports(ctx context.Context, handler amqp.Handler) error
}

// ExportWorker turns queued export requests into written reports.
type ExportWorker struct {
	exports Exporter
	logger  *log.Logger
}

func NewExportWorker(exports Exporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{exports: exports, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleExportMessage processes a single export message from AMQP.
// Validation and not-found errors are returned unwrapped so the consumer can
// dead-letter the message instead of retrying it.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ReportExportMessage) error {
	logger := w.logger.With(
		log.FieldUserID, msg.UserID,
		log.FieldRequestID, msg.RequestID,
		log.FieldFormat, msg.Format)

	from, to, err := msg.Range()
	if err != nil {
		logger.WarnContext(ctx, "Rejecting export message", log.FieldError, err)
		return err
	}

	logger.InfoContext(ctx, "Processing export message",
		log.FieldStartDate, from.String(),
		log.FieldEndDate, to.String(),
		"requested_at", msg.RequestedAt)

	ref, err := w.exports.Export(ctx, msg.UserID, from, to, msg.Format)
	switch {
	case err == nil:
	case core.IsValidation(err), errors.Is(err, core.ErrNotFound):
		logger.WarnContext(ctx, "Dropping export message", log.FieldError, err)
		return err
	default:
		return fmt.Errorf("export reports: %w", err)
	}

	logger.InfoContext(ctx, "Export message processed", log.FieldExportRef, ref)
	return nil
}

// Run consumes export messages until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Export worker consuming messages")
	err := consumer.ConsumeExports(ctx, w.HandleExportMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
