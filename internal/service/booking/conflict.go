package booking

import (
	"context"

	"github.com/Domenick1991/roombooking/internal/domain"
)

// BookingLister is the read the resolver needs. Inside a slot scope it must be the scoped store.
type BookingLister interface {
	ListByRoomAndDate(ctx context.Context, roomID, date string) ([]domain.Booking, error)
}

// FindConflict returns the first blocking booking whose slots intersect requested,
// skipping excludeID. Slot order is irrelevant.
func FindConflict(existing []domain.Booking, requested []string, excludeID string) (*domain.Booking, []string) {
	for i := range existing {
		b := existing[i]
		if !b.Blocks() || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		if overlap := b.OverlappingSlots(requested); len(overlap) > 0 {
			return &b, overlap
		}
	}
	return nil, nil
}

type ConflictResolver struct{}

// Check returns a Conflict error naming the holder when requested overlaps a
// confirmed booking of roomID on date.
func (ConflictResolver) Check(ctx context.Context, store BookingLister, roomID, date string, requested []string, excludeID string) error {
	existing, err := store.ListByRoomAndDate(ctx, roomID, date)
	if err != nil {
		return err
	}
	if holder, overlap := FindConflict(existing, requested, excludeID); holder != nil {
		return domain.Conflict("a booking already holds one or more of the selected time slots", map[string]any{
			"conflictingBookingId": holder.ID,
			"conflictingTimeSlots": overlap,
		})
	}
	return nil
}
