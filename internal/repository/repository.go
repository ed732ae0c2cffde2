package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
)

var (
	ErrNotFound = errors.New("repository: not found")
	// ErrBookingCancelled is returned when a write targets a cancelled booking.
	ErrBookingCancelled = errors.New("repository: booking is cancelled")
	// ErrRevisionClosed is returned when a revision transition finds the request in another state.
	ErrRevisionClosed = errors.New("repository: revision request is not in the expected state")
	// ErrUsernameTaken and ErrEmailTaken report a uniqueness clash, compared case-insensitively.
	ErrUsernameTaken = errors.New("repository: username already in use")
	ErrEmailTaken    = errors.New("repository: email already in use")
	// ErrUserStatusChanged is returned when SetStatus finds the user in another status.
	ErrUserStatusChanged = errors.New("repository: user is not in the expected status")
)

type CatalogRepository interface {
	ListTimeSlots(ctx context.Context) ([]domain.TimeSlot, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListMonitorings(ctx context.Context) ([]domain.Monitoring, error)
	GetMonitoring(ctx context.Context, id string) (*domain.Monitoring, error)
}

// SlotTxFunc runs inside the serialisation scope of one (room, date) key.
// tx must be used for every read and write the decision depends on.
type SlotTxFunc func(ctx context.Context, tx BookingRepository) error

type BookingRepository interface {
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	// ListByRoomAndDate returns the confirmed bookings of a room on a date.
	ListByRoomAndDate(ctx context.Context, roomID, date string) ([]domain.Booking, error)
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	Create(ctx context.Context, booking *domain.Booking) error
	Update(ctx context.Context, booking *domain.Booking) error
	Cancel(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	WithSlotLock(ctx context.Context, roomID, date string, fn SlotTxFunc) error
}

type RevisionRepository interface {
	List(ctx context.Context, filter domain.RevisionFilter) ([]domain.RevisionRequest, error)
	FindByID(ctx context.Context, id string) (*domain.RevisionRequest, error)
	Create(ctx context.Context, request *domain.RevisionRequest) error
	// Transition moves a request from one status to another atomically. Called
	// with the ctx of a SlotTxFunc it commits or rolls back with the slot writes.
	Transition(ctx context.Context, id string, from, to domain.RevisionStatus, reviewedBy string, reviewedAt *time.Time) (*domain.RevisionRequest, error)
}

type ActivityRepository interface {
	Insert(ctx context.Context, entry *domain.ActivityLog) error
	List(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLog, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// List returns every user, oldest first.
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	// Update rewrites profile, role, status and password hash. created_at and last_login are kept.
	Update(ctx context.Context, user *domain.User) error
	// SetStatus is a compare-and-set on status that also records the reviewer.
	SetStatus(ctx context.Context, id string, from, to domain.UserStatus, reviewedBy string, reviewedAt time.Time) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// SlotKey identifies the serialisation scope of a room on a date.
func SlotKey(roomID, date string) string {
	return roomID + "|" + date
}
