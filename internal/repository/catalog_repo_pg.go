package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const roomColumns = `id, number, name, description, capacity, monitoring_id, is_independent, available`

type PGCatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &PGCatalogRepository{db: db}
}

func (r *PGCatalogRepository) ListTimeSlots(ctx context.Context) ([]domain.TimeSlot, error) {
	rows, err := r.db.Query(ctx, `SELECT id, label, start_time, end_time, period FROM time_slots ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	defer rows.Close()

	slots := make([]domain.TimeSlot, 0)
	for rows.Next() {
		var (
			s      domain.TimeSlot
			period string
		)
		if err := rows.Scan(&s.ID, &s.Label, &s.Start, &s.End, &period); err != nil {
			return nil, fmt.Errorf("scan time slot: %w", err)
		}
		s.Period = domain.Period(period)
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *PGCatalogRepository) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

func (r *PGCatalogRepository) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := scanRoom(r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// ListMonitorings returns every monitoring with the non-independent rooms it manages.
func (r *PGCatalogRepository) ListMonitorings(ctx context.Context) ([]domain.Monitoring, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, service_type, allowed_periods, reservable FROM monitorings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list monitorings: %w", err)
	}
	monitorings := make([]domain.Monitoring, 0)
	for rows.Next() {
		m, err := scanMonitoring(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan monitoring: %w", err)
		}
		monitorings = append(monitorings, *m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rooms, err := r.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	byMonitoring := make(map[string][]domain.Room)
	for _, room := range rooms {
		if room.MonitoringID != "" && !room.IsIndependent {
			byMonitoring[room.MonitoringID] = append(byMonitoring[room.MonitoringID], room)
		}
	}
	for i := range monitorings {
		monitorings[i].Rooms = byMonitoring[monitorings[i].ID]
		if monitorings[i].Rooms == nil {
			monitorings[i].Rooms = []domain.Room{}
		}
	}
	return monitorings, nil
}

func (r *PGCatalogRepository) GetMonitoring(ctx context.Context, id string) (*domain.Monitoring, error) {
	m, err := scanMonitoring(r.db.QueryRow(ctx, `SELECT id, name, service_type, allowed_periods, reservable FROM monitorings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get monitoring: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+roomColumns+` FROM rooms WHERE monitoring_id = $1 AND NOT is_independent ORDER BY number`, id)
	if err != nil {
		return nil, fmt.Errorf("list monitoring rooms: %w", err)
	}
	defer rows.Close()

	m.Rooms = make([]domain.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		m.Rooms = append(m.Rooms, *room)
	}
	return m, rows.Err()
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var (
		room         domain.Room
		monitoringID *string
	)
	if err := row.Scan(&room.ID, &room.Number, &room.Name, &room.Description, &room.Capacity,
		&monitoringID, &room.IsIndependent, &room.Available); err != nil {
		return nil, err
	}
	room.MonitoringID = valueOrEmpty(monitoringID)
	return &room, nil
}

func scanMonitoring(row pgx.Row) (*domain.Monitoring, error) {
	var m domain.Monitoring
	if err := row.Scan(&m.ID, &m.Name, &m.ServiceType, &m.AllowedPeriods, &m.Reservable); err != nil {
		return nil, err
	}
	return &m, nil
}

var _ CatalogRepository = (*PGCatalogRepository)(nil)
