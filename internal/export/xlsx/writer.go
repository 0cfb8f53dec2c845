// Package xlsx writes report exports as Excel workbooks on local disk.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/xuri/excelize/v2"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
	ports "gigtrack/internal/sheets"
)

// Writer saves one workbook per export, with one worksheet per table.
type Writer struct {
	dir    string
	logger *log.Logger
}

var _ ports.ReportWriter = (*Writer)(nil)

func New(dir string, logger *log.Logger) (*Writer, error) {
	if dir == "" {
		return nil, errors.New("missing export directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Writer{dir: dir, logger: logger.WithComponent(log.ComponentExport)}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName is the workbook name for an export. Re-exporting a period
// replaces the previous file.
func FileName(r core.ReportExport) string {
	user := unsafeName.ReplaceAllString(r.User.ID, "_")
	if user == "" {
		user = "user"
	}
	return fmt.Sprintf("gigtrack_%s_%s_%s.xlsx", user, r.From, r.To)
}

// WriteReport saves the workbook and returns its path.
func (w *Writer) WriteReport(ctx context.Context, r core.ReportExport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("header style: %w", err)
	}

	rows := 0
	for i, t := range ports.Tables(r) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return "", fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return "", fmt.Errorf("add sheet %q: %w", t.Name, err)
		}
		if err := writeTable(f, t, bold); err != nil {
			return "", fmt.Errorf("sheet %q: %w", t.Name, err)
		}
		rows += len(t.Rows)
	}
	f.SetActiveSheet(0)

	path := filepath.Join(w.dir, FileName(r))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	w.logger.InfoContext(ctx, "Report written to workbook",
		log.FieldUserID, r.User.ID,
		log.FieldExportRef, path,
		log.FieldRows, rows)
	return path, nil
}

func writeTable(f *excelize.File, t ports.Table, headerStyle int) error {
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}
	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(t.Name, "A1", last, headerStyle); err != nil {
			return err
		}
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(t.Name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
