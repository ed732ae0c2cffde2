package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
)

// AuditEvent is the wire form of an activity log entry on the audit topic.
type AuditEvent struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	UserName         string    `json:"user_name"`
	Action           string    `json:"action"`
	Details          string    `json:"details"`
	AffectedResource string    `json:"affected_resource,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

func NewAuditEvent(entry domain.ActivityLog) AuditEvent {
	return AuditEvent{
		ID:               entry.ID,
		UserID:           entry.UserID,
		UserName:         entry.UserName,
		Action:           entry.Action,
		Details:          entry.Details,
		AffectedResource: entry.AffectedResource,
		Timestamp:        entry.Timestamp,
	}
}

func (e AuditEvent) ActivityLog() domain.ActivityLog {
	return domain.ActivityLog{
		ID:               e.ID,
		UserID:           e.UserID,
		UserName:         e.UserName,
		Action:           e.Action,
		Details:          e.Details,
		AffectedResource: e.AffectedResource,
		Timestamp:        e.Timestamp,
	}
}

// DecodeAuditEvent parses a message value and rejects events without id or action.
func DecodeAuditEvent(data []byte) (AuditEvent, error) {
	var e AuditEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return AuditEvent{}, fmt.Errorf("decode audit event: %w", err)
	}
	if e.ID == "" || e.Action == "" {
		return AuditEvent{}, fmt.Errorf("decode audit event: id and action are required")
	}
	return e, nil
}
