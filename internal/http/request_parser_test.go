package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigtrack/internal/core"
)

func TestParseReportParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantField string
		check     func(t *testing.T, p ReportParams)
	}{
		{
			name:  "empty",
			query: "",
			check: func(t *testing.T, p ReportParams) {
				start, end := p.Range()
				assert.True(t, start.IsEmpty())
				assert.True(t, end.IsEmpty())
				f := p.Financial()
				assert.Nil(t, f.PlatformID)
				assert.Nil(t, f.Category)
			},
		},
		{
			name:  "all filters",
			query: "startDate=2024-01-01&endDate=2024-01-31&platformId=p1&category=tolls&vehicleId=v9",
			check: func(t *testing.T, p ReportParams) {
				f := p.Financial()
				assert.Equal(t, core.NewDate(2024, 1, 1), f.StartDate)
				assert.Equal(t, core.NewDate(2024, 1, 31), f.EndDate)
				require.NotNil(t, f.PlatformID)
				assert.Equal(t, "p1", *f.PlatformID)
				require.NotNil(t, f.Category)
				assert.Equal(t, core.CategoryTolls, *f.Category)

				v := p.Vehicle()
				require.NotNil(t, v.VehicleID)
				assert.Equal(t, "v9", *v.VehicleID)
			},
		},
		{
			name:  "rfc3339 truncated to day",
			query: "startDate=2024-02-10T23:30:00Z",
			check: func(t *testing.T, p ReportParams) {
				start, _ := p.Range()
				assert.Equal(t, core.NewDate(2024, 2, 10), start)
			},
		},
		{name: "bad start", query: "startDate=10/02/2024", wantField: "startDate"},
		{name: "bad end", query: "endDate=2024-02-30", wantField: "endDate"},
		{name: "bad category", query: "category=FUEL", wantField: "category"},
		{name: "long platform id", query: "platformId=" + strings.Repeat("x", 65), wantField: "platformId"},
		{name: "first failure wins", query: "startDate=x&endDate=y", wantField: "startDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			p, err := ParseReportParams(r)
			if tt.wantField != "" {
				var ve *core.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
				assert.NotEmpty(t, ve.Message)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestCategoryMessageListsChoices(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?category=snacks", nil)
	_, err := ParseReportParams(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "car_wash")
}

func TestParseExportRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"startDate":" 2024-01-01 ","endDate":"2024-01-31","format":"xlsx"}`))
	req, err := ParseExportRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", req.StartDate)
	assert.Equal(t, "xlsx", req.Format)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"startDate":"2024-01-01","endDate":"2024-01-31","extra":1}`))
	_, err = ParseExportRequest(r)
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "body", ve.Field)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	_, err = ParseExportRequest(r)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "startDate", ve.Field)
}
