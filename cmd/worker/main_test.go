package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/kafka"
	"github.com/Domenick1991/roombooking/internal/repository/memory"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersist(t *testing.T) {
	logger, hook := test.NewNullLogger()
	repo := memory.NewActivityRepository()
	ctx := context.Background()

	entry := domain.ActivityLog{
		ID:        "a1",
		UserID:    "coord1",
		UserName:  "Coordenadora Nutrição",
		Action:    domain.ActionCreateBooking,
		Details:   "booking created for Sala 1 - NDC - Atendimento",
		Timestamp: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(kafka.NewAuditEvent(entry))
	require.NoError(t, err)

	require.NoError(t, persist(ctx, repo, kafkaGo.Message{Value: raw}, logger))
	require.NoError(t, persist(ctx, repo, kafkaGo.Message{Value: raw}, logger))
	require.NoError(t, persist(ctx, repo, kafkaGo.Message{Value: []byte("not json")}, logger))

	list, err := repo.List(ctx, domain.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)
	assert.Equal(t, "skipping malformed audit event", hook.LastEntry().Message)
}
