package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAuditEvent(t *testing.T) {
	entry := domain.ActivityLog{
		ID:               "a1",
		UserID:           "admin1",
		UserName:         "Administrador NAMI",
		Action:           domain.ActionCancelBooking,
		Details:          "cancelled booking b1",
		AffectedResource: "Sala 1 - NDC",
		Timestamp:        time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(NewAuditEvent(entry))
	require.NoError(t, err)

	event, err := DecodeAuditEvent(data)
	require.NoError(t, err)
	assert.Equal(t, entry, event.ActivityLog())
}

func TestDecodeAuditEvent_Rejects(t *testing.T) {
	_, err := DecodeAuditEvent([]byte("{not json"))
	assert.Error(t, err)

	_, err = DecodeAuditEvent([]byte(`{"user_id":"u1"}`))
	assert.Error(t, err)
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, nil)
	require.NotNil(t, p)
	assert.NoError(t, p.Close())
}
