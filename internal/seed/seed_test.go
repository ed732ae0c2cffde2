package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRooms_ReferenceKnownMonitorings(t *testing.T) {
	known := map[string]bool{}
	for _, m := range Monitorings() {
		known[m.ID] = true
	}

	numbers := map[int]bool{}
	for _, r := range Rooms() {
		assert.False(t, numbers[r.Number], "duplicate room number %d", r.Number)
		numbers[r.Number] = true
		if r.MonitoringID != "" {
			assert.True(t, known[r.MonitoringID], r.ID)
		}
	}
	assert.Len(t, numbers, 20)
}

func TestMonitorings_AllowOnlyCatalogSlots(t *testing.T) {
	slots := map[string]bool{}
	for _, s := range TimeSlots() {
		slots[s.ID] = true
	}
	for _, m := range Monitorings() {
		for _, id := range m.AllowedPeriods {
			assert.True(t, slots[id], "%s allows unknown slot %s", m.ID, id)
		}
	}
}

func TestUsers_PasswordsAreHashed(t *testing.T) {
	users, err := Users()
	require.NoError(t, err)
	require.Len(t, users, 3)

	assert.Equal(t, "admin.nami", users[0].Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("NAMI@2025!")))
}
