package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/sirupsen/logrus"
)

// SlotLocker is a cross-instance lock on a room and date.
type SlotLocker interface {
	AcquireSlotLock(ctx context.Context, roomID, date string, ttl time.Duration) (string, error)
	ReleaseSlotLock(ctx context.Context, roomID, date, token string) error
}

// SlotGuard is the only way booking writes are performed. It serialises every
// read-decide-write on a (room, date) key through the store, optionally behind
// a distributed lock as well.
type SlotGuard struct {
	bookings repository.BookingRepository
	locker   SlotLocker
	lockTTL  time.Duration
	log      logrus.FieldLogger
}

func NewSlotGuard(bookings repository.BookingRepository, locker SlotLocker, lockTTL time.Duration, log logrus.FieldLogger) *SlotGuard {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SlotGuard{bookings: bookings, locker: locker, lockTTL: lockTTL, log: log}
}

// Run executes fn inside the serialisation scope of (roomID, date). A locker
// failure other than the caller's deadline degrades to the store lock alone.
func (g *SlotGuard) Run(ctx context.Context, roomID, date string, fn repository.SlotTxFunc) error {
	if g.locker != nil {
		token, err := g.locker.AcquireSlotLock(ctx, roomID, date, g.lockTTL)
		switch {
		case err == nil:
			defer func() {
				if err := g.locker.ReleaseSlotLock(context.WithoutCancel(ctx), roomID, date, token); err != nil {
					g.log.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "date": date}).Warn("release slot lock failed")
				}
			}()
		case ctx.Err() != nil:
			return domain.Internal("timed out waiting for slot lock", err)
		default:
			g.log.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "date": date}).Warn("distributed slot lock unavailable")
		}
	}
	return g.bookings.WithSlotLock(ctx, roomID, date, fn)
}
