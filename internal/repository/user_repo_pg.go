package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, password_hash, name, email, role, department, status, created_at, last_login, reviewed_by, reviewed_at`

const (
	uniqueViolation      = "23505"
	usernameUniqueIndex  = "idx_users_username_lower"
	usernameUniqueColumn = "users_username_key"
	emailUniqueIndex     = "idx_users_email_lower"
)

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PGUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
}

func (r *PGUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users
		(id, username, password_hash, name, email, role, department, status, created_at, reviewed_by, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.Username, user.PasswordHash, user.Name, user.Email, string(user.Role),
		nullIfEmpty(user.Department), string(user.Status), user.CreatedAt, nullIfEmpty(user.ReviewedBy), user.ReviewedAt)
	if err != nil {
		if taken := uniqueClash(err); taken != nil {
			return taken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PGUserRepository) Update(ctx context.Context, user *domain.User) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
			password_hash = $2, name = $3, email = $4, role = $5, department = $6, status = $7,
			reviewed_by = $8, reviewed_at = $9
		WHERE id = $1`,
		user.ID, user.PasswordHash, user.Name, user.Email, string(user.Role), nullIfEmpty(user.Department),
		string(user.Status), nullIfEmpty(user.ReviewedBy), user.ReviewedAt)
	if err != nil {
		if taken := uniqueClash(err); taken != nil {
			return taken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGUserRepository) SetStatus(ctx context.Context, id string, from, to domain.UserStatus, reviewedBy string, reviewedAt time.Time) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `UPDATE users
		SET status = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = $2
		RETURNING `+userColumns,
		id, string(from), string(to), nullIfEmpty(reviewedBy), reviewedAt))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("set user status: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrUserStatusChanged
}

func (r *PGUserRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGUserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u          domain.User
		role       string
		status     string
		department *string
		reviewedBy *string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Email, &role, &department, &status,
		&u.CreatedAt, &u.LastLogin, &reviewedBy, &u.ReviewedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	u.Department = valueOrEmpty(department)
	u.ReviewedBy = valueOrEmpty(reviewedBy)
	return &u, nil
}

// uniqueClash maps a unique violation on users to the matching sentinel.
func uniqueClash(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case usernameUniqueIndex, usernameUniqueColumn:
		return ErrUsernameTaken
	case emailUniqueIndex:
		return ErrEmailTaken
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
