package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, room_id, room_number, room_name, date, time_slots, responsible, service_type, notes, created_by, created_at, updated_at, status`

type PGBookingRepository struct {
	pool *pgxpool.Pool
	db   querier
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{pool: pool, db: pool}
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	var (
		conds []string
		args  []any
	)
	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		conds = append(conds, fmt.Sprintf("room_id = $%d", len(args)))
	}
	if filter.From != "" {
		from, err := domain.DateToTime(filter.From)
		if err != nil {
			return nil, fmt.Errorf("parse from date: %w", err)
		}
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != "" {
		to, err := domain.DateToTime(filter.To)
		if err != nil {
			return nil, fmt.Errorf("parse to date: %w", err)
		}
		args = append(args, to)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	} else if !filter.IncludeCancelled {
		conds = append(conds, "status <> 'cancelled'")
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date DESC, created_at DESC`

	return r.queryBookings(ctx, query, args...)
}

func (r *PGBookingRepository) ListByRoomAndDate(ctx context.Context, roomID, date string) ([]domain.Booking, error) {
	day, err := domain.DateToTime(date)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = $1 AND date = $2 AND status = 'confirmed'
		ORDER BY created_at`, roomID, day)
}

func (r *PGBookingRepository) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	day, err := domain.DateToTime(booking.Date)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	if err := r.db.QueryRow(ctx, `INSERT INTO bookings
		(id, room_id, room_number, room_name, date, time_slots, responsible, service_type, notes, created_by, created_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING updated_at`,
		booking.ID, booking.RoomID, booking.RoomNumber, booking.RoomName, day, booking.TimeSlots,
		booking.Responsible, booking.ServiceType, nullIfEmpty(booking.Notes), booking.CreatedBy,
		booking.CreatedAt, string(booking.Status)).
		Scan(&booking.UpdatedAt); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// Update rewrites every mutable column. created_by and created_at are never touched.
func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	day, err := domain.DateToTime(booking.Date)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	err = r.db.QueryRow(ctx, `UPDATE bookings SET
			room_id = $2, room_number = $3, room_name = $4, date = $5, time_slots = $6,
			responsible = $7, service_type = $8, notes = $9, status = $10, updated_at = now()
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING updated_at`,
		booking.ID, booking.RoomID, booking.RoomNumber, booking.RoomName, day, booking.TimeSlots,
		booking.Responsible, booking.ServiceType, nullIfEmpty(booking.Notes), string(booking.Status)).
		Scan(&booking.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update booking: %w", err)
	}

	var status string
	if err := r.db.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, booking.ID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("check booking status: %w", err)
	}
	return ErrBookingCancelled
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status = 'cancelled', updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WithSlotLock runs fn in a transaction holding a transaction-scoped advisory
// lock on (roomID, date). Concurrent writers for the same key queue on the lock,
// so the conflict check and the write inside fn are atomic. The ctx handed to fn
// carries the transaction, so other stores called with it join the same commit.
func (r *PGBookingRepository) WithSlotLock(ctx context.Context, roomID, date string, fn SlotTxFunc) error {
	if tx, ok := r.db.(pgx.Tx); ok {
		if err := lockSlot(ctx, tx, roomID, date); err != nil {
			return err
		}
		return fn(ctx, r)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin slot transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := lockSlot(ctx, tx, roomID, date); err != nil {
		return err
	}
	if err := fn(withTx(ctx, tx), &PGBookingRepository{pool: r.pool, db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func lockSlot(ctx context.Context, tx pgx.Tx, roomID, date string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, SlotKey(roomID, date)); err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b      domain.Booking
		day    time.Time
		notes  *string
		status string
	)
	if err := row.Scan(&b.ID, &b.RoomID, &b.RoomNumber, &b.RoomName, &day, &b.TimeSlots, &b.Responsible,
		&b.ServiceType, &notes, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt, &status); err != nil {
		return nil, err
	}
	b.Date = domain.TimeToDate(day)
	b.Notes = valueOrEmpty(notes)
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
