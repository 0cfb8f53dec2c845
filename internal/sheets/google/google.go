package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
	ports "gigtrack/internal/sheets"
)

// Client writes each export to its own tab of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

var _ ports.ReportWriter = (*Client)(nil)

// Config selects the spreadsheet and service account credentials. When
// neither credential field is set, GOOGLE_APPLICATION_CREDENTIALS is used.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON []byte
	CredentialsFile string
}

// NewFromEnv creates a client from GOOGLE_SPREADSHEET_ID plus
// GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE.
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Client, error) {
	return New(ctx, Config{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		CredentialsJSON: []byte(strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))),
		CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}, logger)
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentExport)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	credentialsJSON := cfg.CredentialsJSON
	file := cfg.CredentialsFile
	if len(credentialsJSON) == 0 && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case len(credentialsJSON) > 0:
		logger.InfoContext(ctx, "Using inline service account credentials")
	case file != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteReport adds a tab named after the export and fills it with every
// report table stacked vertically. Re-exporting the same period overwrites
// the existing tab.
func (c *Client) WriteReport(ctx context.Context, r core.ReportExport) (string, error) {
	title := ports.Title(r)

	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}).Context(ctx).Do()
	switch {
	case err == nil:
	case isSheetExists(err):
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoteSheet(title), &gsheet.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("clear sheet %q: %w", title, err)
		}
	default:
		return "", fmt.Errorf("add sheet %q: %w", title, err)
	}

	values := stack(ports.Tables(r))
	rng := quoteSheet(title) + "!A1"
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write sheet %q: %w", title, err)
	}

	c.logger.InfoContext(ctx, "Report written to Google Sheets",
		log.FieldUserID, r.User.ID,
		log.FieldExportRef, rng,
		log.FieldRows, len(values))
	return rng, nil
}

// stack renders tables one below the other with a title row each and a
// blank row between them.
func stack(tables []ports.Table) [][]interface{} {
	var out [][]interface{}
	for i, t := range tables {
		if i > 0 {
			out = append(out, []interface{}{})
		}
		out = append(out, []interface{}{t.Name})
		header := make([]interface{}, len(t.Header))
		for j, h := range t.Header {
			header[j] = h
		}
		out = append(out, header)
		for _, row := range t.Rows {
			out = append(out, append([]interface{}(nil), row...))
		}
	}
	return out
}

func quoteSheet(title string) string {
	return "'" + title + "'"
}

func isSheetExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest &&
		strings.Contains(gerr.Message, "already exists")
}
