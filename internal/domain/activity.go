package domain

import "time"

// Audit actions recorded after each successful mutation.
const (
	ActionCreateBooking   = "create_booking"
	ActionUpdateBooking   = "update_booking"
	ActionCancelBooking   = "cancel_booking"
	ActionDeleteBooking   = "delete_booking"
	ActionCreateRevision  = "create_revision"
	ActionApproveRevision = "approve_revision"
	ActionRejectRevision  = "reject_revision"
	ActionLogout          = "logout"
	ActionManageUser      = "manage_user"
)

// ActivityLog is one audit trail entry.
type ActivityLog struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	UserName         string    `json:"userName"`
	Action           string    `json:"action"`
	Details          string    `json:"details"`
	AffectedResource string    `json:"affectedResource,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// ActivityFilter narrows activity log listings.
type ActivityFilter struct {
	UserID string
	Action string
	Limit  int
}
