package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBookingService_Scenario(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	first, err := service.CreateBooking(ctx, request("room1", "MA", "MB"), editor)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, first.Status)
	assert.Equal(t, "Coordenadora Nutrição", first.CreatedBy)
	assert.Equal(t, 1, first.RoomNumber)

	_, err = service.CreateBooking(ctx, request("room1", "MB", "MC"), editor)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, first.ID, detail(t, err, "conflictingBookingId"))
	assert.Equal(t, []string{"MB"}, detail(t, err, "conflictingTimeSlots"))

	_, err = service.CancelBooking(ctx, first.ID, editor)
	require.NoError(t, err)

	third, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, third.Status)
}

func TestBookingService_RequiresActor(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	_, err := service.CreateBooking(ctx, request("room1", "MA"), nobody)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	_, err = service.UpdateBooking(ctx, "b1", request("room1", "MA"), nobody)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	_, err = service.CancelBooking(ctx, "b1", nobody)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestBookingService_FailedCreateLeavesStoreUntouched(t *testing.T) {
	service, store := newService()
	ctx := context.Background()

	_, err := service.CreateBooking(ctx, request("room2", "MA", "TC"), editor)
	require.Error(t, err)

	all, err := store.List(ctx, domain.BookingFilter{IncludeCancelled: true})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBookingService_PendingDoesNotBlock(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	pending := request("room1", "MA")
	pending.Status = domain.BookingStatusPending
	_, err := service.CreateBooking(ctx, pending, editor)
	require.NoError(t, err)

	_, err = service.CreateBooking(ctx, request("room1", "MA"), editor)
	assert.NoError(t, err)
}

func TestBookingService_UpdateSelfExclusion(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	b, err := service.CreateBooking(ctx, request("room1", "MA", "MB", "MC"), editor)
	require.NoError(t, err)

	req := request("room1", "MB")
	req.Notes = "  shortened  "
	updated, err := service.UpdateBooking(ctx, b.ID, req, admin)
	require.NoError(t, err)

	assert.Equal(t, b.ID, updated.ID)
	assert.Equal(t, []string{"MB"}, updated.TimeSlots)
	assert.Equal(t, "shortened", updated.Notes)
	assert.Equal(t, b.CreatedBy, updated.CreatedBy)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)
	assert.Equal(t, domain.BookingStatusConfirmed, updated.Status)

	// freed slots are bookable by others
	_, err = service.CreateBooking(ctx, request("room1", "MA"), editor)
	assert.NoError(t, err)
}

func TestBookingService_UpdateConflictsWithOthers(t *testing.T) {
	service, store := newService()
	ctx := context.Background()

	a, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.NoError(t, err)
	b, err := service.CreateBooking(ctx, request("room1", "MB"), editor)
	require.NoError(t, err)

	_, err = service.UpdateBooking(ctx, b.ID, request("room1", "MA", "MB"), editor)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, a.ID, detail(t, err, "conflictingBookingId"))

	stored, err := store.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"MB"}, stored.TimeSlots)
}

func TestBookingService_UpdateErrors(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	_, err := service.UpdateBooking(ctx, "missing", request("room1", "MA"), editor)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	b, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.NoError(t, err)
	_, err = service.CancelBooking(ctx, b.ID, editor)
	require.NoError(t, err)

	_, err = service.UpdateBooking(ctx, b.ID, request("room1", "MA"), editor)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestBookingService_UpdateKeepsStatusWhenOmitted(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	pending := request("room1", "MA")
	pending.Status = domain.BookingStatusPending
	b, err := service.CreateBooking(ctx, pending, editor)
	require.NoError(t, err)

	updated, err := service.UpdateBooking(ctx, b.ID, request("room1", "MB"), editor)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, updated.Status)
}

func TestBookingService_CancelIsIdempotent(t *testing.T) {
	recorder := &MockRecorder{}
	service, _ := newService(WithAudit(recorder))
	ctx := context.Background()

	recorder.On("Record", mock.Anything, editor, domain.ActionCreateBooking, mock.Anything, "Sala 1").Return().Once()
	recorder.On("Record", mock.Anything, editor, domain.ActionCancelBooking, mock.Anything, "Sala 1").Return().Once()

	b, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.NoError(t, err)

	first, err := service.CancelBooking(ctx, b.ID, editor)
	require.NoError(t, err)
	second, err := service.CancelBooking(ctx, b.ID, editor)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusCancelled, first.Status)
	assert.Equal(t, domain.BookingStatusCancelled, second.Status)
	recorder.AssertExpectations(t)
	recorder.AssertNumberOfCalls(t, "Record", 2)
}

func TestBookingService_CancelMissing(t *testing.T) {
	service, _ := newService()
	_, err := service.CancelBooking(context.Background(), "missing", editor)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestBookingService_Delete(t *testing.T) {
	service, store := newService()
	ctx := context.Background()

	b, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.NoError(t, err)

	assert.Equal(t, domain.KindForbidden, domain.KindOf(service.DeleteBooking(ctx, b.ID, editor)))
	require.NoError(t, service.DeleteBooking(ctx, b.ID, admin))

	_, err = store.FindByID(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(service.DeleteBooking(ctx, b.ID, admin)))
}

func TestBookingService_Availability(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	b, err := service.CreateBooking(ctx, request("room2", "MA"), editor)
	require.NoError(t, err)

	av, err := service.Availability(ctx, "room2", testDay)
	require.NoError(t, err)
	require.Len(t, av.FreeSlots, 1)
	assert.Equal(t, "MB", av.FreeSlots[0].ID)
	assert.Equal(t, b.ID, av.Taken["MA"])

	av, err = service.Availability(ctx, "room3", testDay)
	require.NoError(t, err)
	assert.Len(t, av.FreeSlots, 4)

	_, err = service.Availability(ctx, "room3", "not a date")
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestBookingService_ListBookings(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	_, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.NoError(t, err)
	other := request("room3", "MA")
	other.Date = "2025-03-12"
	_, err = service.CreateBooking(ctx, other, editor)
	require.NoError(t, err)

	list, err := service.ListBookings(ctx, domain.BookingFilter{From: "2025-03-11T00:00:00Z"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "room3", list[0].RoomID)

	list, err = service.ListRoomBookings(ctx, "room1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = service.ListRoomBookings(ctx, "nope")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = service.ListBookings(ctx, domain.BookingFilter{Status: "weird"})
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestBookingService_ConcurrentCreatesStayDisjoint(t *testing.T) {
	service, store := newService()
	ctx := context.Background()
	slots := []string{"MA", "MB", "MC", "TC"}

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(n))
			perm := r.Perm(len(slots))
			count := 1 + r.Intn(2)
			picked := make([]string, 0, count)
			for _, idx := range perm[:count] {
				picked = append(picked, slots[idx])
			}
			_, err := service.CreateBooking(ctx, request("room1", picked...), domain.Actor{ID: fmt.Sprintf("u%d", n), Name: "user"})
			if err != nil {
				assert.Equal(t, domain.KindConflict, domain.KindOf(err))
			}
		}(int64(i))
	}
	wg.Wait()

	confirmed, err := store.ListByRoomAndDate(ctx, "room1", testDay)
	require.NoError(t, err)
	require.NotEmpty(t, confirmed)

	held := map[string]string{}
	for _, b := range confirmed {
		for _, s := range b.TimeSlots {
			owner, taken := held[s]
			assert.False(t, taken, "slot %s held by %s and %s", s, owner, b.ID)
			held[s] = b.ID
		}
	}
}

func TestBookingService_UsesDistributedLock(t *testing.T) {
	locker := &MockSlotLocker{}
	service, _ := newService(WithSlotLocker(locker, 5*time.Second))
	ctx := context.Background()

	locker.On("AcquireSlotLock", mock.Anything, "room1", testDay, 5*time.Second).Return("tok", nil).Once()
	locker.On("ReleaseSlotLock", mock.Anything, "room1", testDay, "tok").Return(nil).Once()

	_, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.NoError(t, err)
	locker.AssertExpectations(t)
}

func TestBookingService_LockerOutageFallsBackToStoreLock(t *testing.T) {
	locker := &MockSlotLocker{}
	service, _ := newService(WithSlotLocker(locker, time.Second))
	ctx := context.Background()

	locker.On("AcquireSlotLock", mock.Anything, "room1", testDay, time.Second).Return("", errors.New("redis down")).Once()

	_, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.NoError(t, err)
	locker.AssertNotCalled(t, "ReleaseSlotLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_RequestTimeoutApplied(t *testing.T) {
	service, store := newService(WithRequestTimeout(50 * time.Millisecond))
	ctx := context.Background()

	release := make(chan struct{})
	entered := make(chan struct{})
	go func() {
		_ = store.WithSlotLock(ctx, "room1", testDay, func(context.Context, repository.BookingRepository) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	defer close(release)

	_, err := service.CreateBooking(ctx, request("room1", "MA"), editor)
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	all, err := store.List(ctx, domain.BookingFilter{IncludeCancelled: true})
	require.NoError(t, err)
	assert.Empty(t, all)
}
