package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigtrack/internal/amqp"
	"gigtrack/internal/core"
)

type stubExporter struct {
	err    error
	userID string
	from   core.Date
	to     core.Date
	format string
}

func (s *stubExporter) Export(_ context.Context, userID string, from, to core.Date, format string) (string, error) {
	s.userID, s.from, s.to, s.format = userID, from, to, format
	if s.err != nil {
		return "", s.err
	}
	return "ref-1", nil
}

type stubConsumer struct {
	msgs []*amqp.ReportExportMessage
	errs []error
}

func (c *stubConsumer) ConsumeExports(ctx context.Context, handler amqp.Handler) error {
	for _, m := range c.msgs {
		c.errs = append(c.errs, handler(ctx, m))
	}
	return context.Canceled
}

func message(start, end string) *amqp.ReportExportMessage {
	return &amqp.ReportExportMessage{UserID: "u1", StartDate: start, EndDate: end, Format: "xlsx", RequestID: "req_1"}
}

func TestHandleExportMessage(t *testing.T) {
	exp := &stubExporter{}
	w := NewExportWorker(exp, nil)

	require.NoError(t, w.HandleExportMessage(context.Background(), message("2024-03-01", "2024-03-31")))
	assert.Equal(t, "u1", exp.userID)
	assert.Equal(t, "2024-03-01", exp.from.String())
	assert.Equal(t, "2024-03-31", exp.to.String())
	assert.Equal(t, "xlsx", exp.format)
}

func TestHandleExportMessageErrors(t *testing.T) {
	t.Run("bad range", func(t *testing.T) {
		w := NewExportWorker(&stubExporter{}, nil)
		err := w.HandleExportMessage(context.Background(), message("soon", "2024-03-31"))
		assert.True(t, core.IsValidation(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		w := NewExportWorker(&stubExporter{err: fmt.Errorf("user u1: %w", core.ErrNotFound)}, nil)
		err := w.HandleExportMessage(context.Background(), message("2024-03-01", "2024-03-31"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("transient", func(t *testing.T) {
		w := NewExportWorker(&stubExporter{err: errors.New("sheets 503")}, nil)
		err := w.HandleExportMessage(context.Background(), message("2024-03-01", "2024-03-31"))
		require.Error(t, err)
		assert.False(t, core.IsValidation(err))
		assert.Contains(t, err.Error(), "export reports: sheets 503")
	})
}

func TestRun(t *testing.T) {
	consumer := &stubConsumer{msgs: []*amqp.ReportExportMessage{
		message("2024-03-01", "2024-03-31"),
		message("2024-04-01", "bad"),
	}}
	w := NewExportWorker(&stubExporter{}, nil)

	require.NoError(t, w.Run(context.Background(), consumer))
	require.Len(t, consumer.errs, 2)
	assert.NoError(t, consumer.errs[0])
	assert.Error(t, consumer.errs[1])
}
