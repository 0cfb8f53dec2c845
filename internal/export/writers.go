// Package export wires the configured report writers into an export service.
package export

import (
	"context"
	"fmt"

	"gigtrack/internal/config"
	"gigtrack/internal/export/xlsx"
	"gigtrack/internal/log"
	"gigtrack/internal/services"
	gsheet "gigtrack/internal/sheets/google"
)

// Writers returns one option per available writer. The xlsx writer is
// registered whenever an export directory is configured; Google Sheets only
// when a spreadsheet id is set. The default format must be among them.
func Writers(ctx context.Context, cfg *config.Config, logger *log.Logger) ([]services.ExportOption, error) {
	var opts []services.ExportOption

	if cfg.ExportDir != "" {
		w, err := xlsx.New(cfg.ExportDir, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, services.WithWriter(config.ExportXLSX, w))
	}

	if cfg.GoogleSpreadsheetID != "" {
		c, err := gsheet.NewFromEnv(ctx, logger)
		if err != nil {
			if cfg.ExportFormat == config.ExportSheets {
				return nil, err
			}
			logger.WarnContext(ctx, "Google Sheets export disabled", log.FieldError, err)
		} else {
			opts = append(opts, services.WithWriter(config.ExportSheets, c))
		}
	} else if cfg.ExportFormat == config.ExportSheets {
		return nil, fmt.Errorf("export format %s needs GOOGLE_SPREADSHEET_ID", config.ExportSheets)
	}

	if len(opts) == 0 {
		return nil, fmt.Errorf("no report writer configured")
	}
	return opts, nil
}
