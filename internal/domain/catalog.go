package domain

import "sort"

type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
)

// TimeSlot is an immutable catalog entry such as "MAB" (07:30-09:10).
type TimeSlot struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Period Period `json:"period"`
}

// Room is a bookable room. MonitoringID is empty for independent rooms.
type Room struct {
	ID            string `json:"id"`
	Number        int    `json:"number"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Capacity      int    `json:"capacity"`
	MonitoringID  string `json:"monitoringId,omitempty"`
	IsIndependent bool   `json:"isIndependent"`
	Available     bool   `json:"available"`
}

// Monitoring groups rooms that share a set of allowed time slots.
type Monitoring struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	ServiceType    string   `json:"serviceType,omitempty"`
	AllowedPeriods []string `json:"allowedPeriods"`
	Reservable     *bool    `json:"reservable,omitempty"`
	Rooms          []Room   `json:"rooms"`
}

// Allows reports whether slotID is one of the monitoring's allowed periods.
func (m Monitoring) Allows(slotID string) bool {
	for _, id := range m.AllowedPeriods {
		if id == slotID {
			return true
		}
	}
	return false
}

// SortTimeSlots orders slots by start time, then id.
func SortTimeSlots(slots []TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Start != slots[j].Start {
			return slots[i].Start < slots[j].Start
		}
		return slots[i].ID < slots[j].ID
	})
}
