package http

import (
	"net/http"

	"gigtrack/internal/amqp"
	"gigtrack/internal/auth"
	"gigtrack/internal/core"
	"gigtrack/internal/log"
	"gigtrack/internal/middleware/trace"
)

// handleCreateExport queues an export of the caller's own reports.
func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	if s.exports == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorBody{
			Error:     "unavailable",
			Message:   "report exports are not enabled",
			RequestID: trace.GetRequestID(r.Context()),
		})
		return
	}

	id, _ := auth.FromContext(r.Context())
	req, err := ParseExportRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, _ := core.ParseDate(req.StartDate)
	to, _ := core.ParseDate(req.EndDate)
	if to.Before(from.Time) {
		writeError(w, r, core.NewValidationError("endDate", "must not be before startDate"))
		return
	}
	format := req.Format
	if format == "" {
		format = s.opts.ExportFormat
	}

	msg := amqp.NewReportExportMessage(id.UserID, from, to, format)
	msg.RequestID = trace.GetRequestID(r.Context())
	if err := s.exports.PublishExport(r.Context(), msg); err != nil {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Failed to queue report export", err, log.ComponentExport, log.OpExport,
				log.NewFields().WithUser(id.UserID).WithErrorType(log.ErrorTypeNetwork))
		writeJSON(w, http.StatusServiceUnavailable, ErrorBody{
			Error:     "unavailable",
			Message:   "could not queue export, try again later",
			RequestID: msg.RequestID,
		})
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogExportQueued(r.Context(), id.UserID, msg.StartDate, msg.EndDate, format)
	writeJSON(w, http.StatusAccepted, ExportAccepted{
		Status:    "queued",
		StartDate: msg.StartDate,
		EndDate:   msg.EndDate,
		Format:    format,
		RequestID: msg.RequestID,
	})
}
