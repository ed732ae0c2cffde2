package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking is a reservation of a room on a date for a set of time slots.
// RoomNumber and RoomName are captured at write time so historical bookings
// keep displaying correctly after a room is renamed.
type Booking struct {
	ID          string        `json:"id"`
	RoomID      string        `json:"roomId"`
	RoomNumber  int           `json:"roomNumber"`
	RoomName    string        `json:"roomName"`
	Date        string        `json:"date"`
	TimeSlots   []string      `json:"timeSlots"`
	Responsible string        `json:"responsible"`
	ServiceType string        `json:"serviceType"`
	Notes       string        `json:"notes,omitempty"`
	CreatedBy   string        `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Status      BookingStatus `json:"status"`
}

// Blocks reports whether the booking holds its slots against other bookings.
func (b Booking) Blocks() bool {
	return b.Status == BookingStatusConfirmed
}

// Clone returns a deep copy.
func (b Booking) Clone() Booking {
	out := b
	out.TimeSlots = append([]string(nil), b.TimeSlots...)
	return out
}

// OverlappingSlots returns the ids present both in b.TimeSlots and requested.
// Slot order is not meaningful.
func (b Booking) OverlappingSlots(requested []string) []string {
	want := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}
	var overlap []string
	for _, id := range b.TimeSlots {
		if _, ok := want[id]; ok {
			overlap = append(overlap, id)
		}
	}
	return overlap
}

// BookingRequest is the plain-data input of create and update.
type BookingRequest struct {
	RoomID      string        `json:"roomId"`
	Date        string        `json:"date"`
	TimeSlots   []string      `json:"timeSlots"`
	Responsible string        `json:"responsible"`
	ServiceType string        `json:"serviceType"`
	Notes       string        `json:"notes,omitempty"`
	Status      BookingStatus `json:"status,omitempty"`
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	RoomID           string
	From             string
	To               string
	Status           BookingStatus
	IncludeCancelled bool
}

// Availability describes which slots of a room are free on a date.
// Taken maps a held slot id to the confirmed booking holding it.
type Availability struct {
	RoomID    string            `json:"roomId"`
	Date      string            `json:"date"`
	FreeSlots []TimeSlot        `json:"freeSlots"`
	Taken     map[string]string `json:"taken"`
}
