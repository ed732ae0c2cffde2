package booking

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/sirupsen/logrus"
)

// MaxNotesLength is counted in characters after trimming.
const MaxNotesLength = 500

// Catalog is the part of the catalog the pipeline reads.
type Catalog interface {
	ListTimeSlots(ctx context.Context) ([]domain.TimeSlot, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	GetMonitoring(ctx context.Context, id string) (*domain.Monitoring, error)
}

// Validated is a request that passed every check.
type Validated struct {
	Room      domain.Room
	Date      string
	TimeSlots []string
}

// Validator runs the booking request checks in order and stops at the first failure:
// slot shape, slot existence, room existence, monitoring eligibility, date.
type Validator struct {
	catalog Catalog
	log     logrus.FieldLogger
}

func NewValidator(catalog Catalog, log logrus.FieldLogger) *Validator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Validator{catalog: catalog, log: log}
}

func (v *Validator) Validate(ctx context.Context, req domain.BookingRequest) (*Validated, error) {
	if err := CheckSlotShape(req.TimeSlots); err != nil {
		return nil, err
	}

	catalogSlots, err := v.catalog.ListTimeSlots(ctx)
	if err != nil {
		return nil, err
	}
	if err := CheckSlotsExist(req.TimeSlots, catalogSlots); err != nil {
		return nil, err
	}

	room, err := v.catalog.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	if room.MonitoringID != "" {
		monitoring, err := v.catalog.GetMonitoring(ctx, room.MonitoringID)
		switch {
		case err == nil:
			if err := CheckMonitoringAllows(req.TimeSlots, *monitoring); err != nil {
				return nil, err
			}
		case domain.KindOf(err) == domain.KindNotFound:
			// a room pointing at a missing monitoring is treated as unrestricted
			v.log.WithFields(logrus.Fields{
				"room_id":       room.ID,
				"monitoring_id": room.MonitoringID,
			}).Warn("room references unknown monitoring, skipping eligibility check")
		default:
			return nil, err
		}
	}

	date, err := domain.NormalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	return &Validated{
		Room:      *room,
		Date:      date,
		TimeSlots: append([]string(nil), req.TimeSlots...),
	}, nil
}

// CheckSlotShape rejects an empty selection or one with repeated ids.
func CheckSlotShape(slots []string) error {
	if len(slots) == 0 {
		return domain.BadRequest("select at least one time slot", nil)
	}
	seen := make(map[string]int, len(slots))
	var duplicates []string
	for _, id := range slots {
		seen[id]++
		if seen[id] == 2 {
			duplicates = append(duplicates, id)
		}
	}
	if len(duplicates) > 0 {
		return domain.BadRequest("time slots must not repeat", map[string]any{"duplicateTimeSlots": duplicates})
	}
	return nil
}

func CheckSlotsExist(slots []string, catalog []domain.TimeSlot) error {
	known := make(map[string]struct{}, len(catalog))
	for _, s := range catalog {
		known[s.ID] = struct{}{}
	}
	var invalid []string
	for _, id := range slots {
		if _, ok := known[id]; !ok {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return domain.BadRequest("unknown time slots selected", map[string]any{"invalidTimeSlots": invalid})
	}
	return nil
}

func CheckMonitoringAllows(slots []string, monitoring domain.Monitoring) error {
	var disallowed []string
	for _, id := range slots {
		if !monitoring.Allows(id) {
			disallowed = append(disallowed, id)
		}
	}
	if len(disallowed) > 0 {
		return domain.BadRequest("time slots not allowed for this room", map[string]any{
			"disallowedTimeSlots": disallowed,
			"monitoringId":        monitoring.ID,
		})
	}
	return nil
}

// checkRequiredFields runs before the pipeline; it only looks at presence.
func checkRequiredFields(req domain.BookingRequest) error {
	var missing []string
	if strings.TrimSpace(req.RoomID) == "" {
		missing = append(missing, "roomId")
	}
	if strings.TrimSpace(req.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(req.Responsible) == "" {
		missing = append(missing, "responsible")
	}
	if strings.TrimSpace(req.ServiceType) == "" {
		missing = append(missing, "serviceType")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return domain.BadRequest("missing required fields", map[string]any{"fields": missing})
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Notes)); n > MaxNotesLength {
		return domain.BadRequest("notes must be at most 500 characters", map[string]any{
			"field":     "notes",
			"maxLength": MaxNotesLength,
			"length":    n,
		})
	}
	switch req.Status {
	case "", domain.BookingStatusConfirmed, domain.BookingStatusPending:
	case domain.BookingStatusCancelled:
		return domain.BadRequest("use cancel to cancel a booking", map[string]any{"status": req.Status})
	default:
		return domain.BadRequest("unknown booking status", map[string]any{"status": req.Status})
	}
	return nil
}
