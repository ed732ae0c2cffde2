package activity

import (
	"context"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/sirupsen/logrus"
)

const maxLimit = 500

type ActivityUseCase interface {
	ListActivity(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLog, error)
}

type ActivityService struct {
	repo repository.ActivityRepository
	log  logrus.FieldLogger
}

func NewActivityService(repo repository.ActivityRepository, log logrus.FieldLogger) *ActivityService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ActivityService{repo: repo, log: log}
}

// ListActivity returns the newest entries first. Limit is capped.
func (s *ActivityService) ListActivity(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityLog, error) {
	if filter.Limit < 0 {
		return nil, domain.BadRequest("limit must not be negative", map[string]any{"limit": filter.Limit})
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.WithError(err).Error("list activity logs failed")
		return nil, domain.Internal("", err)
	}
	return entries, nil
}

var _ ActivityUseCase = (*ActivityService)(nil)
