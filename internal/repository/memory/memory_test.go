package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(id, room, date string, slots ...string) *domain.Booking {
	return &domain.Booking{
		ID:        id,
		RoomID:    room,
		Date:      date,
		TimeSlots: slots,
		CreatedBy: "tester",
		CreatedAt: time.Now(),
		Status:    domain.BookingStatusConfirmed,
	}
}

func TestCatalogRepository_MonitoringRoomsExcludeIndependent(t *testing.T) {
	repo := NewCatalogRepository(seed.Data{
		TimeSlots:   seed.TimeSlots(),
		Monitorings: seed.Monitorings(),
		Rooms:       seed.Rooms(),
	})
	ctx := context.Background()

	m, err := repo.GetMonitoring(ctx, "mon1")
	require.NoError(t, err)
	require.Len(t, m.Rooms, 5)
	for _, r := range m.Rooms {
		assert.False(t, r.IsIndependent)
	}

	_, err = repo.GetRoom(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	slots, err := repo.ListTimeSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MAB", slots[0].ID)
}

func TestBookingRepository_ReturnsCopies(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newBooking("b1", "room1", "2025-03-10", "MAB")))

	got, err := repo.FindByID(ctx, "b1")
	require.NoError(t, err)
	got.TimeSlots[0] = "TCD"

	again, err := repo.FindByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"MAB"}, again.TimeSlots)
}

func TestBookingRepository_ListByRoomAndDateOnlyConfirmed(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	pending := newBooking("b2", "room1", "2025-03-10", "MCD")
	pending.Status = domain.BookingStatusPending
	require.NoError(t, repo.Create(ctx, newBooking("b1", "room1", "2025-03-10", "MAB")))
	require.NoError(t, repo.Create(ctx, pending))
	require.NoError(t, repo.Create(ctx, newBooking("b3", "room1", "2025-03-11", "MAB")))

	list, err := repo.ListByRoomAndDate(ctx, "room1", "2025-03-10")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b1", list[0].ID)
}

func TestBookingRepository_UpdateRejectsCancelled(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	b := newBooking("b1", "room1", "2025-03-10", "MAB")
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Cancel(ctx, "b1"))

	b.Status = domain.BookingStatusConfirmed
	assert.ErrorIs(t, repo.Update(ctx, b), repository.ErrBookingCancelled)
	assert.ErrorIs(t, repo.Update(ctx, newBooking("missing", "room1", "2025-03-10", "MAB")), repository.ErrNotFound)
}

func TestBookingRepository_UpdatePreservesCreation(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	b := newBooking("b1", "room1", "2025-03-10", "MAB")
	require.NoError(t, repo.Create(ctx, b))

	changed := b.Clone()
	changed.CreatedBy = "someone else"
	changed.CreatedAt = time.Time{}
	changed.TimeSlots = []string{"MCD"}
	require.NoError(t, repo.Update(ctx, &changed))

	got, err := repo.FindByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "tester", got.CreatedBy)
	assert.Equal(t, b.CreatedAt, got.CreatedAt)
	assert.Equal(t, []string{"MCD"}, got.TimeSlots)
}

func TestBookingRepository_ListFilter(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newBooking("b1", "room1", "2025-03-10", "MAB")))
	require.NoError(t, repo.Create(ctx, newBooking("b2", "room2", "2025-03-12", "MAB")))
	require.NoError(t, repo.Create(ctx, newBooking("b3", "room1", "2025-03-14", "MAB")))
	require.NoError(t, repo.Cancel(ctx, "b3"))

	list, err := repo.List(ctx, domain.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b2", list[0].ID)

	list, err = repo.List(ctx, domain.BookingFilter{RoomID: "room1", IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.List(ctx, domain.BookingFilter{From: "2025-03-11", To: "2025-03-13"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b2", list[0].ID)
}

func TestBookingRepository_WithSlotLockSerialisesSameKey(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.WithSlotLock(ctx, "room1", "2025-03-10", func(ctx context.Context, tx repository.BookingRepository) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen)
}

func TestBookingRepository_WithSlotLockHonoursContext(t *testing.T) {
	repo := NewBookingRepository()
	release := make(chan struct{})
	entered := make(chan struct{})

	go func() {
		_ = repo.WithSlotLock(context.Background(), "room1", "2025-03-10", func(context.Context, repository.BookingRepository) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := repo.WithSlotLock(ctx, "room1", "2025-03-10", func(context.Context, repository.BookingRepository) error {
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a different key is not blocked
	err = repo.WithSlotLock(context.Background(), "room1", "2025-03-11", func(context.Context, repository.BookingRepository) error {
		return nil
	})
	assert.NoError(t, err)
	close(release)
}

func TestBookingRepository_WithSlotLockReentrant(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	err := repo.WithSlotLock(ctx, "room1", "2025-03-10", func(ctx context.Context, tx repository.BookingRepository) error {
		return tx.WithSlotLock(ctx, "room1", "2025-03-10", func(context.Context, repository.BookingRepository) error {
			return nil
		})
	})
	assert.NoError(t, err)
}

func TestRevisionRepository_TransitionIsCompareAndSet(t *testing.T) {
	repo := NewRevisionRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.RevisionRequest{ID: "r1", Status: domain.RevisionStatusOpen, TimeSlots: []string{"MAB"}}))

	now := time.Now()
	got, err := repo.Transition(ctx, "r1", domain.RevisionStatusOpen, domain.RevisionStatusApproved, "admin", &now)
	require.NoError(t, err)
	assert.Equal(t, domain.RevisionStatusApproved, got.Status)
	assert.Equal(t, "admin", got.ReviewedBy)

	_, err = repo.Transition(ctx, "r1", domain.RevisionStatusOpen, domain.RevisionStatusRejected, "admin", &now)
	assert.ErrorIs(t, err, repository.ErrRevisionClosed)

	_, err = repo.Transition(ctx, "missing", domain.RevisionStatusOpen, domain.RevisionStatusRejected, "admin", &now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestActivityRepository_NewestFirstAndDeduplicated(t *testing.T) {
	repo := NewActivityRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, &domain.ActivityLog{ID: "a1", UserID: "u1", Action: domain.ActionCreateBooking, Timestamp: base}))
	require.NoError(t, repo.Insert(ctx, &domain.ActivityLog{ID: "a2", UserID: "u2", Action: domain.ActionCancelBooking, Timestamp: base.Add(time.Minute)}))
	require.NoError(t, repo.Insert(ctx, &domain.ActivityLog{ID: "a1", UserID: "u1", Action: domain.ActionCreateBooking, Timestamp: base}))

	list, err := repo.List(ctx, domain.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID)

	list, err = repo.List(ctx, domain.ActivityFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserRepository_FindByUsernameIgnoresCase(t *testing.T) {
	repo := NewUserRepository([]domain.User{{ID: "u1", Username: "admin.nami"}})
	ctx := context.Background()

	u, err := repo.FindByUsername(ctx, "Admin.Nami")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	require.NoError(t, repo.TouchLastLogin(ctx, "u1", time.Now()))
	u, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, u.LastLogin)
}

func TestUserRepository_CreateRejectsDuplicates(t *testing.T) {
	repo := NewUserRepository([]domain.User{{ID: "u1", Username: "admin.nami", Email: "admin@unifor.br"}})
	ctx := context.Background()

	err := repo.Create(ctx, &domain.User{ID: "u2", Username: "ADMIN.NAMI", Email: "other@unifor.br"})
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)
	err = repo.Create(ctx, &domain.User{ID: "u2", Username: "coord", Email: "Admin@Unifor.br"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u2", Username: "coord", Email: "coord@unifor.br"}))
	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	err = repo.Update(ctx, &domain.User{ID: "u2", Username: "coord", Email: "admin@unifor.br"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
	assert.ErrorIs(t, repo.Update(ctx, &domain.User{ID: "nope"}), repository.ErrNotFound)
}

func TestUserRepository_SetStatusComparesCurrentStatus(t *testing.T) {
	repo := NewUserRepository([]domain.User{{ID: "u1", Username: "new", Status: domain.UserStatusPending}})
	ctx := context.Background()
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := repo.SetStatus(ctx, "u1", domain.UserStatusActive, domain.UserStatusInactive, "Admin", at)
	assert.ErrorIs(t, err, repository.ErrUserStatusChanged)

	u, err := repo.SetStatus(ctx, "u1", domain.UserStatusPending, domain.UserStatusActive, "Admin", at)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, u.Status)
	assert.Equal(t, "Admin", u.ReviewedBy)
	require.NotNil(t, u.ReviewedAt)
	assert.True(t, at.Equal(*u.ReviewedAt))

	_, err = repo.SetStatus(ctx, "ghost", domain.UserStatusPending, domain.UserStatusActive, "Admin", at)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u1"), repository.ErrNotFound)
}
