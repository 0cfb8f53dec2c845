package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigtrack/internal/config"
	"gigtrack/internal/log"
	"gigtrack/internal/services"
)

func TestWritersXLSXOnly(t *testing.T) {
	cfg := &config.Config{ExportFormat: config.ExportXLSX, ExportDir: t.TempDir()}
	opts, err := Writers(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	require.Len(t, opts, 1)

	svc := services.NewExportService(nil, nil, cfg.ExportFormat, nil, opts...)
	assert.True(t, svc.Supports(config.ExportXLSX))
	assert.False(t, svc.Supports(config.ExportSheets))
}

func TestWritersSheetsRequired(t *testing.T) {
	cfg := &config.Config{ExportFormat: config.ExportSheets, ExportDir: t.TempDir()}
	_, err := Writers(context.Background(), cfg, log.Discard())
	assert.Error(t, err)
}

func TestWritersSheetsOptional(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-1")

	cfg := &config.Config{ExportFormat: config.ExportXLSX, ExportDir: t.TempDir(), GoogleSpreadsheetID: "sheet-1"}
	opts, err := Writers(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	assert.Len(t, opts, 1, "sheets writer is skipped without credentials")
}

func TestWritersNone(t *testing.T) {
	_, err := Writers(context.Background(), &config.Config{ExportFormat: config.ExportXLSX}, log.Discard())
	assert.EqualError(t, err, "no report writer configured")
}
