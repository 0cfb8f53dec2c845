package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
	"gigtrack/internal/middleware/trace"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.body != nil {
		_ = json.NewEncoder(w).Encode(b.body)
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

// writeError maps domain errors to status codes. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := ErrorBody{RequestID: trace.GetRequestID(r.Context())}
	resp := NewJSONResponse()

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		resp.Status(http.StatusBadRequest)
		body.Error, body.Field, body.Message = log.ErrorTypeValidation, ve.Field, ve.Message
	case errors.Is(err, core.ErrUnauthenticated):
		resp.Status(http.StatusUnauthorized).Header("WWW-Authenticate", `Bearer realm="gigtrack"`)
		body.Error, body.Message = log.ErrorTypeAuth, "authentication required"
	case errors.Is(err, core.ErrForbidden):
		resp.Status(http.StatusForbidden)
		body.Error, body.Message = log.ErrorTypeAuth, "not allowed to read this scope"
	case errors.Is(err, core.ErrNotFound):
		resp.Status(http.StatusNotFound)
		body.Error, body.Message = log.ErrorTypeNotFound, "not found"
	case errors.Is(err, context.DeadlineExceeded):
		resp.Status(http.StatusGatewayTimeout)
		body.Error, body.Message = log.ErrorTypeTimeout, "report took too long"
		log.FromContext(r.Context()).WarnContext(r.Context(), "Report timed out", log.FieldError, err)
	default:
		resp.Status(http.StatusInternalServerError)
		body.Error, body.Message = log.ErrorTypeInternal, "internal error"
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.URL.Path, nil)
	}

	resp.Body(body).Write(w)
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, ErrorBody{
		Error:     "rate_limited",
		Message:   "rate limit exceeded, try again later",
		RequestID: trace.GetRequestID(r.Context()),
	})
}
