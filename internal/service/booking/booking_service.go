package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/roombooking/internal/audit"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, req domain.BookingRequest, actor domain.Actor) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, id string, req domain.BookingRequest, actor domain.Actor) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, id string, actor domain.Actor) error
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	ListRoomBookings(ctx context.Context, roomID string) ([]domain.Booking, error)
	Availability(ctx context.Context, roomID, date string) (*domain.Availability, error)
}

type BookingService struct {
	bookings  repository.BookingRepository
	catalog   Catalog
	validator *Validator
	resolver  ConflictResolver
	guard     *SlotGuard
	audit     audit.Recorder
	log       logrus.FieldLogger
	timeout   time.Duration
	now       func() time.Time
	newID     func() string

	locker  SlotLocker
	lockTTL time.Duration
}

type BookingServiceOption func(*BookingService)

func WithAudit(recorder audit.Recorder) BookingServiceOption {
	return func(s *BookingService) {
		s.audit = recorder
	}
}

func WithLogger(log logrus.FieldLogger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// WithSlotLocker adds a distributed lock in front of the store lock.
func WithSlotLocker(locker SlotLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// WithRequestTimeout bounds calls whose context has no deadline.
func WithRequestTimeout(timeout time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.timeout = timeout
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	catalog Catalog,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:  bookings,
		catalog:   catalog,
		audit:     audit.Nop{},
		log:       logrus.StandardLogger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(service)
	}
	service.validator = NewValidator(catalog, service.log)
	service.guard = NewSlotGuard(bookings, service.locker, service.lockTTL, service.log)
	return service
}

// Guard exposes the write scope so the revision workflow goes through the same serialisation.
func (s *BookingService) Guard() *SlotGuard {
	return s.guard
}

func (s *BookingService) CreateBooking(ctx context.Context, req domain.BookingRequest, actor domain.Actor) (*domain.Booking, error) {
	if actor.ID == "" {
		return nil, domain.Unauthorized("")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := checkRequiredFields(req); err != nil {
		return nil, err
	}
	v, err := s.validator.Validate(ctx, req)
	if err != nil {
		return nil, s.fail(err)
	}

	status := req.Status
	if status == "" {
		status = domain.BookingStatusConfirmed
	}
	booking := &domain.Booking{
		ID:          s.newID(),
		RoomID:      v.Room.ID,
		RoomNumber:  v.Room.Number,
		RoomName:    v.Room.Name,
		Date:        v.Date,
		TimeSlots:   v.TimeSlots,
		Responsible: strings.TrimSpace(req.Responsible),
		ServiceType: strings.TrimSpace(req.ServiceType),
		Notes:       strings.TrimSpace(req.Notes),
		CreatedBy:   actor.Name,
		CreatedAt:   s.now().UTC(),
		Status:      status,
	}

	err = s.guard.Run(ctx, v.Room.ID, v.Date, func(ctx context.Context, tx repository.BookingRepository) error {
		if err := s.resolver.Check(ctx, tx, v.Room.ID, v.Date, v.TimeSlots, ""); err != nil {
			return err
		}
		return tx.Create(ctx, booking)
	})
	if err != nil {
		return nil, s.fail(err)
	}

	s.log.WithFields(logrus.Fields{
		"operation":  "create_booking",
		"booking_id": booking.ID,
		"room_id":    booking.RoomID,
		"date":       booking.Date,
		"actor_id":   actor.ID,
	}).Info("booking created")
	s.audit.Record(ctx, actor, domain.ActionCreateBooking,
		fmt.Sprintf("booking created for %s - %s", booking.RoomName, booking.ServiceType), roomLabel(booking))
	return booking, nil
}

func (s *BookingService) UpdateBooking(ctx context.Context, id string, req domain.BookingRequest, actor domain.Actor) (*domain.Booking, error) {
	if actor.ID == "" {
		return nil, domain.Unauthorized("")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	if existing.Status == domain.BookingStatusCancelled {
		return nil, domain.BadRequest("a cancelled booking cannot be updated", map[string]any{"bookingId": id})
	}

	if err := checkRequiredFields(req); err != nil {
		return nil, err
	}
	v, err := s.validator.Validate(ctx, req)
	if err != nil {
		return nil, s.fail(err)
	}

	updated := existing.Clone()
	updated.RoomID = v.Room.ID
	updated.RoomNumber = v.Room.Number
	updated.RoomName = v.Room.Name
	updated.Date = v.Date
	updated.TimeSlots = v.TimeSlots
	updated.Responsible = strings.TrimSpace(req.Responsible)
	updated.ServiceType = strings.TrimSpace(req.ServiceType)
	updated.Notes = strings.TrimSpace(req.Notes)
	if req.Status != "" {
		updated.Status = req.Status
	}

	err = s.guard.Run(ctx, v.Room.ID, v.Date, func(ctx context.Context, tx repository.BookingRepository) error {
		if err := s.resolver.Check(ctx, tx, v.Room.ID, v.Date, v.TimeSlots, id); err != nil {
			return err
		}
		return tx.Update(ctx, &updated)
	})
	if err != nil {
		return nil, s.fail(err)
	}

	s.log.WithFields(logrus.Fields{
		"operation":  "update_booking",
		"booking_id": id,
		"room_id":    updated.RoomID,
		"date":       updated.Date,
		"actor_id":   actor.ID,
	}).Info("booking updated")
	s.audit.Record(ctx, actor, domain.ActionUpdateBooking,
		fmt.Sprintf("booking updated for %s - %s", updated.RoomName, updated.ServiceType), roomLabel(&updated))
	return &updated, nil
}

// CancelBooking is idempotent: cancelling a cancelled booking returns it unchanged and records nothing.
func (s *BookingService) CancelBooking(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error) {
	if actor.ID == "" {
		return nil, domain.Unauthorized("")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	if existing.Status == domain.BookingStatusCancelled {
		return existing, nil
	}

	var (
		current          *domain.Booking
		alreadyCancelled bool
	)
	err = s.guard.Run(ctx, existing.RoomID, existing.Date, func(ctx context.Context, tx repository.BookingRepository) error {
		b, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		current = b
		if b.Status == domain.BookingStatusCancelled {
			alreadyCancelled = true
			return nil
		}
		return tx.Cancel(ctx, id)
	})
	if err != nil {
		return nil, s.fail(err)
	}
	if alreadyCancelled {
		return current, nil
	}

	current.Status = domain.BookingStatusCancelled
	current.UpdatedAt = s.now().UTC()
	s.log.WithFields(logrus.Fields{
		"operation":  "cancel_booking",
		"booking_id": id,
		"room_id":    current.RoomID,
		"date":       current.Date,
		"actor_id":   actor.ID,
	}).Info("booking cancelled")
	s.audit.Record(ctx, actor, domain.ActionCancelBooking,
		fmt.Sprintf("booking cancelled for %s - %s", current.RoomName, current.ServiceType), roomLabel(current))
	return current, nil
}

// DeleteBooking physically removes a booking. Admin only.
func (s *BookingService) DeleteBooking(ctx context.Context, id string, actor domain.Actor) error {
	if actor.ID == "" {
		return domain.Unauthorized("")
	}
	if !actor.HasRole(domain.RoleAdmin) {
		return domain.Forbidden("")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return s.fail(err)
	}
	err = s.guard.Run(ctx, existing.RoomID, existing.Date, func(ctx context.Context, tx repository.BookingRepository) error {
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return s.fail(err)
	}

	s.log.WithFields(logrus.Fields{"operation": "delete_booking", "booking_id": id, "actor_id": actor.ID}).Info("booking deleted")
	s.audit.Record(ctx, actor, domain.ActionDeleteBooking,
		fmt.Sprintf("booking %s deleted for %s", id, existing.RoomName), roomLabel(existing))
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	for _, d := range []*string{&filter.From, &filter.To} {
		if *d == "" {
			continue
		}
		normalized, err := domain.NormalizeDate(*d)
		if err != nil {
			return nil, err
		}
		*d = normalized
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.BadRequest("unknown booking status", map[string]any{"status": filter.Status})
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, s.fail(err)
	}
	return bookings, nil
}

func (s *BookingService) ListRoomBookings(ctx context.Context, roomID string) ([]domain.Booking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.catalog.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.ListBookings(ctx, domain.BookingFilter{RoomID: roomID})
}

// Availability lists the slots the room may use on date that no confirmed booking holds.
func (s *BookingService) Availability(ctx context.Context, roomID, rawDate string) (*domain.Availability, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	date, err := domain.NormalizeDate(rawDate)
	if err != nil {
		return nil, err
	}
	room, err := s.catalog.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	slots, err := s.catalog.ListTimeSlots(ctx)
	if err != nil {
		return nil, err
	}
	var monitoring *domain.Monitoring
	if room.MonitoringID != "" {
		if monitoring, err = s.catalog.GetMonitoring(ctx, room.MonitoringID); err != nil {
			return nil, s.fail(err)
		}
	}

	bookings, err := s.bookings.ListByRoomAndDate(ctx, room.ID, date)
	if err != nil {
		return nil, s.fail(err)
	}
	taken := make(map[string]string)
	for _, b := range bookings {
		if !b.Blocks() {
			continue
		}
		for _, id := range b.TimeSlots {
			taken[id] = b.ID
		}
	}

	free := make([]domain.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if monitoring != nil && !monitoring.Allows(slot.ID) {
			continue
		}
		if _, held := taken[slot.ID]; !held {
			free = append(free, slot)
		}
	}
	return &domain.Availability{RoomID: room.ID, Date: date, FreeSlots: free, Taken: taken}, nil
}

func (s *BookingService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// fail converts store and context errors into domain errors. Domain errors pass through unchanged.
func (s *BookingService) fail(err error) error {
	return translateStoreError(err, s.log)
}

func translateStoreError(err error, log logrus.FieldLogger) error {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFound("booking not found")
	case errors.Is(err, repository.ErrBookingCancelled):
		return domain.BadRequest("a cancelled booking cannot be updated", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.Internal("request timed out", err)
	}
	log.WithError(err).Error("booking store failure")
	return domain.Internal("", err)
}

func roomLabel(b *domain.Booking) string {
	return fmt.Sprintf("Sala %d", b.RoomNumber)
}

var _ BookingUseCase = (*BookingService)(nil)
