package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"gigtrack/internal/core"
	"gigtrack/internal/report"
)

const maxBodyBytes = 1 << 16

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report failures under the wire name of the field.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDate(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "expense_category", func(fl validator.FieldLevel) bool {
		return core.ExpenseCategory(fl.Field().String()).IsValid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// ReportParams holds the query parameters shared by the report endpoints.
type ReportParams struct {
	StartDate  string `query:"startDate" validate:"omitempty,isodate"`
	EndDate    string `query:"endDate" validate:"omitempty,isodate"`
	PlatformID string `query:"platformId" validate:"omitempty,max=64,printascii"`
	Category   string `query:"category" validate:"omitempty,expense_category"`
	VehicleID  string `query:"vehicleId" validate:"omitempty,max=64,printascii"`
}

// ParseReportParams reads and validates report query parameters. The first
// failing field is returned as a *core.ValidationError.
func ParseReportParams(r *http.Request) (ReportParams, error) {
	q := r.URL.Query()
	p := ReportParams{
		StartDate:  strings.TrimSpace(q.Get("startDate")),
		EndDate:    strings.TrimSpace(q.Get("endDate")),
		PlatformID: strings.TrimSpace(q.Get("platformId")),
		Category:   strings.TrimSpace(q.Get("category")),
		VehicleID:  strings.TrimSpace(q.Get("vehicleId")),
	}
	if err := validateStruct(p); err != nil {
		return ReportParams{}, err
	}
	return p, nil
}

// Range returns the parsed bounds. Missing bounds are empty dates.
func (p ReportParams) Range() (core.Date, core.Date) {
	return optionalDate(p.StartDate), optionalDate(p.EndDate)
}

func (p ReportParams) Financial() report.FinancialFilters {
	start, end := p.Range()
	f := report.FinancialFilters{StartDate: start, EndDate: end}
	if p.PlatformID != "" {
		id := p.PlatformID
		f.PlatformID = &id
	}
	if p.Category != "" {
		c := core.ExpenseCategory(p.Category)
		f.Category = &c
	}
	return f
}

func (p ReportParams) Vehicle() report.VehicleFilters {
	start, end := p.Range()
	f := report.VehicleFilters{StartDate: start, EndDate: end}
	if p.VehicleID != "" {
		id := p.VehicleID
		f.VehicleID = &id
	}
	return f
}

func optionalDate(s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	d, _ := core.ParseDate(s)
	return d
}

// ExportRequest is the body of POST /api/reports/exports.
type ExportRequest struct {
	StartDate string `json:"startDate" validate:"required,isodate"`
	EndDate   string `json:"endDate" validate:"required,isodate"`
	Format    string `json:"format" validate:"omitempty,oneof=xlsx sheets"`
}

// ParseExportRequest decodes and validates an export request body.
func ParseExportRequest(r *http.Request) (ExportRequest, error) {
	var req ExportRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return ExportRequest{}, core.NewValidationError("body", "invalid JSON: %v", err)
	}
	req.StartDate = strings.TrimSpace(req.StartDate)
	req.EndDate = strings.TrimSpace(req.EndDate)
	if err := validateStruct(req); err != nil {
		return ExportRequest{}, err
	}
	return req, nil
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return core.NewValidationError(fe.Field(), "%s", validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "isodate":
		return fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", fe.Value())
	case "expense_category":
		names := make([]string, 0, len(core.ExpenseCategories()))
		for _, c := range core.ExpenseCategories() {
			names = append(names, string(c))
		}
		return fmt.Sprintf("must be one of: %s", strings.Join(names, ", "))
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "printascii":
		return "contains invalid characters"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
