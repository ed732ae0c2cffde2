package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewCatalogRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewCatalogRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewRevisionRepository(t *testing.T) {
	assert.NotNil(t, NewRevisionRepository(&pgxpool.Pool{}))
}

func TestNewActivityAndUserRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewActivityRepository(pool))
	assert.NotNil(t, NewUserRepository(pool))
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "room1|2025-03-10", SlotKey("room1", "2025-03-10"))
	assert.NotEqual(t, SlotKey("room1", "2025-03-10"), SlotKey("room1", "2025-03-11"))
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	v := nullIfEmpty("note")
	if assert.NotNil(t, v) {
		assert.Equal(t, "note", *v)
	}
	assert.Equal(t, "", valueOrEmpty(nil))
}

func TestSchemaIsEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS bookings")
	assert.Contains(t, schemaSQL, "revision_requests")
	assert.Contains(t, schemaSQL, "reviewed_at")
	assert.Contains(t, schemaSQL, "idx_users_email_lower")
	assert.Contains(t, schemaSQL, "idx_users_username_lower")
}

func TestUniqueClash(t *testing.T) {
	clash := func(code, constraint string) error {
		return fmt.Errorf("insert user: %w", &pgconn.PgError{Code: code, ConstraintName: constraint})
	}

	assert.ErrorIs(t, uniqueClash(clash(uniqueViolation, usernameUniqueIndex)), ErrUsernameTaken)
	assert.ErrorIs(t, uniqueClash(clash(uniqueViolation, usernameUniqueColumn)), ErrUsernameTaken)
	assert.ErrorIs(t, uniqueClash(clash(uniqueViolation, emailUniqueIndex)), ErrEmailTaken)
	assert.NoError(t, uniqueClash(clash(uniqueViolation, "users_pkey")))
	assert.NoError(t, uniqueClash(clash("23503", emailUniqueIndex)))
	assert.NoError(t, uniqueClash(errors.New("connection reset")))
}

func TestConnPrefersTransactionFromContext(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.Same(t, pool, conn(context.Background(), pool))
}
