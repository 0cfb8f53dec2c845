package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"gigtrack/internal/core"
)

// ReportExportMessage asks the worker to export one user's reports for a
// date range. The worker recomputes everything from storage.
type ReportExportMessage struct {
	UserID      string    `json:"userId"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Format      string    `json:"format"`
	RequestedAt time.Time `json:"requestedAt"`
	RequestID   string    `json:"requestId,omitempty"`
}

// NewReportExportMessage creates a message stamped with the current time.
func NewReportExportMessage(userID string, from, to core.Date, format string) *ReportExportMessage {
	return &ReportExportMessage{
		UserID:      userID,
		StartDate:   from.String(),
		EndDate:     to.String(),
		Format:      format,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Range parses the requested period.
func (m *ReportExportMessage) Range() (core.Date, core.Date, error) {
	from, err := core.ParseDate(m.StartDate)
	if err != nil {
		return core.Date{}, core.Date{}, core.NewValidationError("startDate", "invalid date %q", m.StartDate)
	}
	to, err := core.ParseDate(m.EndDate)
	if err != nil {
		return core.Date{}, core.Date{}, core.NewValidationError("endDate", "invalid date %q", m.EndDate)
	}
	return from, to, nil
}

// ReportExportMessageFromJSON decodes and checks a message body.
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode export message: %w", err)
	}
	if msg.UserID == "" {
		return nil, core.NewValidationError("userId", "is required")
	}
	if _, _, err := msg.Range(); err != nil {
		return nil, err
	}
	return &msg, nil
}
