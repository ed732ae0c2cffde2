package catalog

import (
	"context"
	"errors"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type CatalogUseCase interface {
	ListTimeSlots(ctx context.Context) ([]domain.TimeSlot, error)
	TimeSlotExists(ctx context.Context, id string) (bool, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListMonitorings(ctx context.Context) ([]domain.Monitoring, error)
	GetMonitoring(ctx context.Context, id string) (*domain.Monitoring, error)
}

type CatalogCache interface {
	GetTimeSlots(ctx context.Context) ([]domain.TimeSlot, error)
	SetTimeSlots(ctx context.Context, slots []domain.TimeSlot) error
	GetMonitorings(ctx context.Context) ([]domain.Monitoring, error)
	SetMonitorings(ctx context.Context, monitorings []domain.Monitoring) error
}

type CatalogService struct {
	repo  repository.CatalogRepository
	cache CatalogCache
	log   logrus.FieldLogger
}

type CatalogServiceOption func(*CatalogService)

func WithCache(cache CatalogCache) CatalogServiceOption {
	return func(s *CatalogService) {
		s.cache = cache
	}
}

func WithLogger(log logrus.FieldLogger) CatalogServiceOption {
	return func(s *CatalogService) {
		s.log = log
	}
}

func NewCatalogService(repo repository.CatalogRepository, opts ...CatalogServiceOption) *CatalogService {
	s := &CatalogService{repo: repo, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTimeSlots returns the slot catalog ordered by start time.
func (s *CatalogService) ListTimeSlots(ctx context.Context) ([]domain.TimeSlot, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTimeSlots(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.WithError(err).Debug("time slot cache read failed")
		}
	}

	slots, err := s.repo.ListTimeSlots(ctx)
	if err != nil {
		return nil, domain.Internal("", err)
	}
	domain.SortTimeSlots(slots)
	if s.cache != nil {
		if err := s.cache.SetTimeSlots(ctx, slots); err != nil {
			s.log.WithError(err).Debug("time slot cache write failed")
		}
	}
	return slots, nil
}

func (s *CatalogService) TimeSlotExists(ctx context.Context, id string) (bool, error) {
	slots, err := s.ListTimeSlots(ctx)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *CatalogService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, domain.Internal("", err)
	}
	return rooms, nil
}

func (s *CatalogService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("room not found")
		}
		return nil, domain.Internal("", err)
	}
	return room, nil
}

func (s *CatalogService) ListMonitorings(ctx context.Context) ([]domain.Monitoring, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetMonitorings(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	monitorings, err := s.repo.ListMonitorings(ctx)
	if err != nil {
		return nil, domain.Internal("", err)
	}
	if s.cache != nil {
		if err := s.cache.SetMonitorings(ctx, monitorings); err != nil {
			s.log.WithError(err).Debug("monitoring cache write failed")
		}
	}
	return monitorings, nil
}

func (s *CatalogService) GetMonitoring(ctx context.Context, id string) (*domain.Monitoring, error) {
	m, err := s.repo.GetMonitoring(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("monitoring not found")
		}
		return nil, domain.Internal("", err)
	}
	return m, nil
}

var _ CatalogUseCase = (*CatalogService)(nil)
