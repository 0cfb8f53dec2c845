package memory

import (
	"context"
	"fmt"
	"sync"

	"gigtrack/internal/core"
	ports "gigtrack/internal/sheets"
)

// Writer keeps exports in memory. It backs tests and dry-run exports.
type Writer struct {
	mu      sync.Mutex
	exports []core.ReportExport
	err     error
}

var _ ports.ReportWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// WriteReport stores the export and returns a synthetic reference.
func (w *Writer) WriteReport(ctx context.Context, r core.ReportExport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.exports = append(w.exports, r)
	return fmt.Sprintf("mem:%d", len(w.exports)), nil
}

// FailWith makes subsequent writes return err; nil restores success.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

// Exports returns a copy of everything written so far.
func (w *Writer) Exports() []core.ReportExport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.ReportExport(nil), w.exports...)
}
