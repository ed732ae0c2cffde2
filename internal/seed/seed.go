// Package seed holds the default catalog and accounts loaded into a fresh store.
package seed

import (
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Data is everything a fresh store is initialised with.
type Data struct {
	TimeSlots   []domain.TimeSlot
	Monitorings []domain.Monitoring
	Rooms       []domain.Room
	Users       []domain.User
}

var allSlots = []string{"MAB", "MCD", "MEF", "TAB", "TCD"}

func TimeSlots() []domain.TimeSlot {
	return []domain.TimeSlot{
		{ID: "MAB", Label: "Manhã AB", Start: "07:30", End: "09:10", Period: domain.PeriodMorning},
		{ID: "MCD", Label: "Manhã CD", Start: "09:30", End: "11:10", Period: domain.PeriodMorning},
		{ID: "MEF", Label: "Manhã EF", Start: "11:20", End: "13:00", Period: domain.PeriodMorning},
		{ID: "TAB", Label: "Tarde AB", Start: "13:30", End: "15:10", Period: domain.PeriodAfternoon},
		{ID: "TCD", Label: "Tarde CD", Start: "15:30", End: "17:10", Period: domain.PeriodAfternoon},
	}
}

func Monitorings() []domain.Monitoring {
	reservable := true
	mk := func(id, name, serviceType string) domain.Monitoring {
		r := reservable
		return domain.Monitoring{
			ID:             id,
			Name:           name,
			ServiceType:    serviceType,
			AllowedPeriods: append([]string(nil), allSlots...),
			Reservable:     &r,
		}
	}
	return []domain.Monitoring{
		mk("mon1", "Monitoramento 1", "NDC - Atendimento de 1ª vez (Pcte A)"),
		mk("mon2", "Monitoramento 2", "Atendimento Geral"),
		mk("mon3", "Monitoramento 3", "Atendimento Especializado"),
	}
}

func Rooms() []domain.Room {
	rooms := make([]domain.Room, 0, 20)
	for i := 1; i <= 3; i++ {
		rooms = append(rooms, domain.Room{
			ID:            fmt.Sprintf("office_mon%d", i),
			Number:        100 + i,
			Name:          fmt.Sprintf("Escritório Monitoramento %d", i),
			Description:   fmt.Sprintf("Sala de escritório do Monitoramento %d", i),
			Capacity:      2,
			MonitoringID:  fmt.Sprintf("mon%d", i),
			IsIndependent: true,
			Available:     true,
		})
	}

	type roomDef struct {
		name       string
		monitoring string
		capacity   int
	}
	classrooms := map[int]roomDef{
		1: {"Sala 1 - NDC", "mon1", 8}, 2: {"Sala 2 - NDC", "mon1", 8}, 3: {"Sala 3 - NDC", "mon1", 8},
		4: {"Sala 4 - NDC", "mon1", 8}, 5: {"Sala 5 - NDC", "mon1", 8},
		6: {"Sala 6 - ESC", "mon2", 10}, 7: {"Sala 7 - ESC", "mon2", 10}, 8: {"Sala 8 - ESC", "mon2", 10},
		9: {"Sala 9 - ESC", "mon2", 10}, 10: {"Sala 10 - ESC", "mon2", 10},
		11: {"Sala 11 - Nutrição", "mon3", 6},
		12: {"Sala 12 - Independente", "", 12},
		13: {"Sala 13 - Auditório", "", 25},
		14: {"Sala 14", "mon3", 8}, 15: {"Sala 15 - Farmácia", "mon3", 8},
		16: {"Sala 16", "mon3", 8}, 17: {"Sala 17", "mon3", 8},
	}
	for n := 1; n <= 17; n++ {
		s := classrooms[n]
		rooms = append(rooms, domain.Room{
			ID:            fmt.Sprintf("room%d", n),
			Number:        n,
			Name:          s.name,
			Capacity:      s.capacity,
			MonitoringID:  s.monitoring,
			IsIndependent: s.monitoring == "",
			Available:     true,
		})
	}
	return rooms
}

type account struct {
	id, username, password, name, email, department string
	role                                            domain.Role
	created                                         string
}

var accounts = []account{
	{"admin1", "admin.nami", "NAMI@2025!", "Administrador NAMI", "admin.nami@unifor.br", "Tecnologia da Informação", domain.RoleAdmin, "2024-12-01"},
	{"coord1", "coord.nutricao", "Nutri@123", "Coordenadora Nutrição", "coord.nutricao@unifor.br", "Nutrição", domain.RoleEditor, "2024-12-05"},
	{"prof1", "flavia.prof", "Prof@456", "Profa. Flávia", "flavia.prof@unifor.br", "Nutrição", domain.RoleReader, "2024-12-10"},
}

// Users returns the default accounts with bcrypt password hashes.
func Users() ([]domain.User, error) {
	users := make([]domain.User, 0, len(accounts))
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", a.username, err)
		}
		created, _ := time.Parse(domain.DateLayout, a.created)
		users = append(users, domain.User{
			ID:           a.id,
			Username:     a.username,
			PasswordHash: string(hash),
			Name:         a.name,
			Email:        a.email,
			Role:         a.role,
			Department:   a.department,
			Status:       domain.UserStatusActive,
			CreatedAt:    created,
		})
	}
	return users, nil
}

// Default returns the complete seed set.
func Default() (Data, error) {
	users, err := Users()
	if err != nil {
		return Data{}, err
	}
	return Data{
		TimeSlots:   TimeSlots(),
		Monitorings: Monitorings(),
		Rooms:       Rooms(),
		Users:       users,
	}, nil
}
