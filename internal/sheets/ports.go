// Package sheets defines the outbound port for report exports and the
// tabular layout every spreadsheet-like writer renders.
package sheets

import (
	"context"

	"gigtrack/internal/core"
)

// ReportWriter persists one export and returns a reference to it, such as a
// file path or a sheet range.
type ReportWriter interface {
	WriteReport(ctx context.Context, r core.ReportExport) (ref string, err error)
}
