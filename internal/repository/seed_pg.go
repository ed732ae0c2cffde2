package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/roombooking/internal/seed"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplySeed inserts the seed catalog and accounts. Rows that already exist are left untouched.
func ApplySeed(ctx context.Context, pool *pgxpool.Pool, data seed.Data) error {
	batch := &pgx.Batch{}
	for _, s := range data.TimeSlots {
		batch.Queue(`INSERT INTO time_slots (id, label, start_time, end_time, period)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			s.ID, s.Label, s.Start, s.End, string(s.Period))
	}
	for _, m := range data.Monitorings {
		batch.Queue(`INSERT INTO monitorings (id, name, service_type, allowed_periods, reservable)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			m.ID, m.Name, m.ServiceType, m.AllowedPeriods, m.Reservable)
	}
	for _, r := range data.Rooms {
		batch.Queue(`INSERT INTO rooms (id, number, name, description, capacity, monitoring_id, is_independent, available)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Number, r.Name, r.Description, r.Capacity, nullIfEmpty(r.MonitoringID), r.IsIndependent, r.Available)
	}
	for _, u := range data.Users {
		batch.Queue(`INSERT INTO users (id, username, password_hash, name, email, role, department, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Username, u.PasswordHash, u.Name, u.Email, string(u.Role), nullIfEmpty(u.Department), string(u.Status), u.CreatedAt)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	return tx.Commit(ctx)
}
