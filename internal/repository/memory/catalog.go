// Package memory provides mutex-guarded in-process implementations of the
// repository interfaces. They back local runs (storage.driver: memory) and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/seed"
)

type CatalogRepository struct {
	mu          sync.RWMutex
	slots       []domain.TimeSlot
	rooms       map[string]domain.Room
	monitorings map[string]domain.Monitoring
}

func NewCatalogRepository(data seed.Data) *CatalogRepository {
	r := &CatalogRepository{
		slots:       append([]domain.TimeSlot(nil), data.TimeSlots...),
		rooms:       make(map[string]domain.Room, len(data.Rooms)),
		monitorings: make(map[string]domain.Monitoring, len(data.Monitorings)),
	}
	domain.SortTimeSlots(r.slots)
	for _, room := range data.Rooms {
		r.rooms[room.ID] = room
	}
	for _, m := range data.Monitorings {
		m.AllowedPeriods = append([]string(nil), m.AllowedPeriods...)
		m.Rooms = nil
		r.monitorings[m.ID] = m
	}
	return r
}

func (r *CatalogRepository) ListTimeSlots(_ context.Context) ([]domain.TimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.TimeSlot(nil), r.slots...), nil
}

func (r *CatalogRepository) ListRooms(_ context.Context) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedRooms(func(domain.Room) bool { return true }), nil
}

func (r *CatalogRepository) GetRoom(_ context.Context, id string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &room, nil
}

func (r *CatalogRepository) ListMonitorings(ctx context.Context) ([]domain.Monitoring, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.monitorings))
	for id := range r.monitorings {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	out := make([]domain.Monitoring, 0, len(ids))
	for _, id := range ids {
		m, err := r.GetMonitoring(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *CatalogRepository) GetMonitoring(_ context.Context, id string) (*domain.Monitoring, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.monitorings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.AllowedPeriods = append([]string(nil), m.AllowedPeriods...)
	m.Rooms = r.sortedRooms(func(room domain.Room) bool {
		return room.MonitoringID == id && !room.IsIndependent
	})
	return &m, nil
}

func (r *CatalogRepository) sortedRooms(keep func(domain.Room) bool) []domain.Room {
	rooms := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if keep(room) {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
	return rooms
}

var _ repository.CatalogRepository = (*CatalogRepository)(nil)
