package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
)

const defaultActivityLimit = 100

type ActivityRepository struct {
	mu      sync.RWMutex
	entries []domain.ActivityLog
	seen    map[string]struct{}
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{seen: make(map[string]struct{})}
}

func (r *ActivityRepository) Insert(_ context.Context, entry *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[entry.ID]; dup {
		return nil
	}
	r.seen[entry.ID] = struct{}{}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *ActivityRepository) List(_ context.Context, filter domain.ActivityFilter) ([]domain.ActivityLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ActivityLog, 0)
	for _, e := range r.entries {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ repository.ActivityRepository = (*ActivityRepository)(nil)
