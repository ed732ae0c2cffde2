package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
)

type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	now func() time.Time
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		bookings: make(map[string]domain.Booking),
		locks:    make(map[string]chan struct{}),
		now:      time.Now,
	}
}

func (r *BookingRepository) List(_ context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Booking, 0)
	for _, b := range r.bookings {
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.From != "" && b.Date < filter.From {
			continue
		}
		if filter.To != "" && b.Date > filter.To {
			continue
		}
		if filter.Status != "" {
			if b.Status != filter.Status {
				continue
			}
		} else if !filter.IncludeCancelled && b.Status == domain.BookingStatusCancelled {
			continue
		}
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *BookingRepository) ListByRoomAndDate(_ context.Context, roomID, date string) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Booking, 0)
	for _, b := range r.bookings {
		if b.RoomID == roomID && b.Date == date && b.Status == domain.BookingStatusConfirmed {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BookingRepository) FindByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := b.Clone()
	return &c, nil
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[booking.ID]; exists {
		return fmt.Errorf("insert booking: duplicate id %s", booking.ID)
	}
	booking.UpdatedAt = r.now()
	r.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[booking.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status == domain.BookingStatusCancelled {
		return repository.ErrBookingCancelled
	}
	next := booking.Clone()
	next.CreatedBy = stored.CreatedBy
	next.CreatedAt = stored.CreatedAt
	next.UpdatedAt = r.now()
	r.bookings[booking.ID] = next
	booking.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *BookingRepository) Cancel(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = domain.BookingStatusCancelled
	b.UpdatedAt = r.now()
	r.bookings[id] = b
	return nil
}

func (r *BookingRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

// WithSlotLock holds a per-(room, date) lock while fn runs. Waiting for the
// lock gives up when ctx is done.
func (r *BookingRepository) WithSlotLock(ctx context.Context, roomID, date string, fn repository.SlotTxFunc) error {
	key := repository.SlotKey(roomID, date)
	lock := r.slotLock(key)

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-lock }()

	return fn(ctx, &heldSlot{BookingRepository: r, key: key})
}

func (r *BookingRepository) slotLock(key string) chan struct{} {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	lock, ok := r.locks[key]
	if !ok {
		lock = make(chan struct{}, 1)
		r.locks[key] = lock
	}
	return lock
}

// heldSlot is handed to a SlotTxFunc. Re-entering the key it already holds does not block.
type heldSlot struct {
	*BookingRepository
	key string
}

func (h *heldSlot) WithSlotLock(ctx context.Context, roomID, date string, fn repository.SlotTxFunc) error {
	if repository.SlotKey(roomID, date) == h.key {
		return fn(ctx, h)
	}
	return h.BookingRepository.WithSlotLock(ctx, roomID, date, fn)
}

var _ repository.BookingRepository = (*BookingRepository)(nil)
