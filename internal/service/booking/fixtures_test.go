package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository/memory"
	"github.com/Domenick1991/roombooking/internal/seed"
	"github.com/Domenick1991/roombooking/internal/service/catalog"
	"github.com/stretchr/testify/mock"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, actor domain.Actor, action, details, affectedResource string) {
	m.Called(ctx, actor, action, details, affectedResource)
}

type MockSlotLocker struct {
	mock.Mock
}

func (m *MockSlotLocker) AcquireSlotLock(ctx context.Context, roomID, date string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, roomID, date, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockSlotLocker) ReleaseSlotLock(ctx context.Context, roomID, date, token string) error {
	args := m.Called(ctx, roomID, date, token)
	return args.Error(0)
}

var (
	editor  = domain.Actor{ID: "coord1", Name: "Coordenadora Nutrição", Role: domain.RoleEditor}
	admin   = domain.Actor{ID: "admin1", Name: "Administrador NAMI", Role: domain.RoleAdmin}
	nobody  = domain.Actor{}
	testDay = "2025-03-10"
)

// testCatalog has room1 under a monitoring allowing MA, MB, MC and TC, room2 under
// one allowing only MA and MB, and room3 independent.
func testCatalog() *catalog.CatalogService {
	data := seed.Data{
		TimeSlots: []domain.TimeSlot{
			{ID: "MA", Label: "MA", Start: "07:30", End: "08:20", Period: domain.PeriodMorning},
			{ID: "MB", Label: "MB", Start: "08:20", End: "09:10", Period: domain.PeriodMorning},
			{ID: "MC", Label: "MC", Start: "09:30", End: "10:20", Period: domain.PeriodMorning},
			{ID: "TC", Label: "TC", Start: "15:30", End: "16:20", Period: domain.PeriodAfternoon},
		},
		Monitorings: []domain.Monitoring{
			{ID: "monFull", Name: "Full", AllowedPeriods: []string{"MA", "MB", "MC", "TC"}},
			{ID: "monAB", Name: "Morning", AllowedPeriods: []string{"MA", "MB"}},
		},
		Rooms: []domain.Room{
			{ID: "room1", Number: 1, Name: "Sala 1", MonitoringID: "monFull", Available: true},
			{ID: "room2", Number: 2, Name: "Sala 2", MonitoringID: "monAB", Available: true},
			{ID: "room3", Number: 3, Name: "Sala 3", IsIndependent: true, Available: true},
			{ID: "room4", Number: 4, Name: "Sala 4", MonitoringID: "ghost", Available: true},
		},
	}
	return catalog.NewCatalogService(memory.NewCatalogRepository(data))
}

func request(room string, slots ...string) domain.BookingRequest {
	return domain.BookingRequest{
		RoomID:      room,
		Date:        testDay,
		TimeSlots:   slots,
		Responsible: "Profa. Flávia",
		ServiceType: "Atendimento",
	}
}

func newService(opts ...BookingServiceOption) (*BookingService, *memory.BookingRepository) {
	store := memory.NewBookingRepository()
	return NewBookingService(store, testCatalog(), opts...), store
}
