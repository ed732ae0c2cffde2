package domain

import "time"

type RevisionStatus string

const (
	RevisionStatusOpen     RevisionStatus = "open"
	RevisionStatusApproved RevisionStatus = "approved"
	RevisionStatusRejected RevisionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s RevisionStatus) Terminal() bool {
	return s == RevisionStatusApproved || s == RevisionStatusRejected
}

// RevisionRequest contests a room/date/slot combination held by another booking.
type RevisionRequest struct {
	ID                string         `json:"id"`
	RoomID            string         `json:"roomId"`
	RoomNumber        int            `json:"roomNumber"`
	RoomName          string         `json:"roomName"`
	Date              string         `json:"date"`
	TimeSlots         []string       `json:"timeSlots"`
	Responsible       string         `json:"responsible"`
	ServiceType       string         `json:"serviceType"`
	Justification     string         `json:"justification"`
	RequestedByUserID string         `json:"requestedByUserId"`
	RequestedByName   string         `json:"requestedByName"`
	Status            RevisionStatus `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
	ReviewedBy        string         `json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time     `json:"reviewedAt,omitempty"`
}

// RevisionInput carries the fields a requester supplies.
type RevisionInput struct {
	RoomID        string   `json:"roomId"`
	RoomNumber    int      `json:"roomNumber"`
	RoomName      string   `json:"roomName"`
	Date          string   `json:"date"`
	TimeSlots     []string `json:"timeSlots"`
	Responsible   string   `json:"responsible"`
	ServiceType   string   `json:"serviceType"`
	Justification string   `json:"justification"`
}

// RevisionFilter narrows revision listings.
type RevisionFilter struct {
	Status      RevisionStatus
	RequestedBy string
}
