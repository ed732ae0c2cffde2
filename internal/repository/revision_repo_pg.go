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

const revisionColumns = `id, room_id, room_number, room_name, date, time_slots, responsible, service_type, justification,
	requested_by_user_id, requested_by_name, status, created_at, reviewed_by, reviewed_at`

type PGRevisionRepository struct {
	db *pgxpool.Pool
}

func NewRevisionRepository(db *pgxpool.Pool) RevisionRepository {
	return &PGRevisionRepository{db: db}
}

func (r *PGRevisionRepository) List(ctx context.Context, filter domain.RevisionFilter) ([]domain.RevisionRequest, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conds = append(conds, fmt.Sprintf("requested_by_user_id = $%d", len(args)))
	}

	query := `SELECT ` + revisionColumns + ` FROM revision_requests`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list revision requests: %w", err)
	}
	defer rows.Close()

	requests := make([]domain.RevisionRequest, 0)
	for rows.Next() {
		req, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (r *PGRevisionRepository) FindByID(ctx context.Context, id string) (*domain.RevisionRequest, error) {
	req, err := scanRevision(conn(ctx, r.db).QueryRow(ctx, `SELECT `+revisionColumns+` FROM revision_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get revision request: %w", err)
	}
	return req, nil
}

func (r *PGRevisionRepository) Create(ctx context.Context, req *domain.RevisionRequest) error {
	day, err := domain.DateToTime(req.Date)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO revision_requests
		(id, room_id, room_number, room_name, date, time_slots, responsible, service_type, justification,
		 requested_by_user_id, requested_by_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		req.ID, req.RoomID, req.RoomNumber, req.RoomName, day, req.TimeSlots, req.Responsible, req.ServiceType,
		req.Justification, req.RequestedByUserID, req.RequestedByName, string(req.Status), req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert revision request: %w", err)
	}
	return nil
}

// Transition is a compare-and-set on status: only a request currently in from is
// moved. Inside WithSlotLock it runs on the slot transaction.
func (r *PGRevisionRepository) Transition(ctx context.Context, id string, from, to domain.RevisionStatus, reviewedBy string, reviewedAt *time.Time) (*domain.RevisionRequest, error) {
	db := conn(ctx, r.db)
	req, err := scanRevision(db.QueryRow(ctx, `UPDATE revision_requests
		SET status = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = $2
		RETURNING `+revisionColumns,
		id, string(from), string(to), nullIfEmpty(reviewedBy), reviewedAt))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition revision request: %w", err)
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revision_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check revision request: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrRevisionClosed
}

func scanRevision(row pgx.Row) (*domain.RevisionRequest, error) {
	var (
		req        domain.RevisionRequest
		day        time.Time
		status     string
		reviewedBy *string
	)
	if err := row.Scan(&req.ID, &req.RoomID, &req.RoomNumber, &req.RoomName, &day, &req.TimeSlots,
		&req.Responsible, &req.ServiceType, &req.Justification, &req.RequestedByUserID, &req.RequestedByName,
		&status, &req.CreatedAt, &reviewedBy, &req.ReviewedAt); err != nil {
		return nil, err
	}
	req.Date = domain.TimeToDate(day)
	req.Status = domain.RevisionStatus(status)
	req.ReviewedBy = valueOrEmpty(reviewedBy)
	return &req, nil
}

var _ RevisionRepository = (*PGRevisionRepository)(nil)
