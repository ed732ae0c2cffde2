package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultActivityLimit = 100

type PGActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) ActivityRepository {
	return &PGActivityRepository{db: db}
}

// Insert is idempotent on id so redelivered audit events are not duplicated.
func (r *PGActivityRepository) Insert(ctx context.Context, entry *domain.ActivityLog) error {
	_, err := r.db.Exec(ctx, `INSERT INTO activity_logs (id, user_id, user_name, action, details, affected_resource, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.UserID, entry.UserName, entry.Action, entry.Details, nullIfEmpty(entry.AffectedResource), entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (r *PGActivityRepository) List(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLog, error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	query := `SELECT id, user_id, user_name, action, details, affected_resource, created_at FROM activity_logs`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.ActivityLog, 0)
	for rows.Next() {
		var (
			entry    domain.ActivityLog
			resource *string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.UserName, &entry.Action, &entry.Details, &resource, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		entry.AffectedResource = valueOrEmpty(resource)
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

var _ ActivityRepository = (*PGActivityRepository)(nil)
