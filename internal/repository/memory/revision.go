package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
)

type RevisionRepository struct {
	mu       sync.RWMutex
	requests map[string]domain.RevisionRequest
}

func NewRevisionRepository() *RevisionRepository {
	return &RevisionRepository{requests: make(map[string]domain.RevisionRequest)}
}

func (r *RevisionRepository) List(_ context.Context, filter domain.RevisionFilter) ([]domain.RevisionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RevisionRequest, 0)
	for _, req := range r.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.RequestedBy != "" && req.RequestedByUserID != filter.RequestedBy {
			continue
		}
		out = append(out, cloneRevision(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *RevisionRepository) FindByID(_ context.Context, id string) (*domain.RevisionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneRevision(req)
	return &c, nil
}

func (r *RevisionRepository) Create(_ context.Context, req *domain.RevisionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[req.ID]; exists {
		return fmt.Errorf("insert revision request: duplicate id %s", req.ID)
	}
	r.requests[req.ID] = cloneRevision(*req)
	return nil
}

func (r *RevisionRepository) Transition(_ context.Context, id string, from, to domain.RevisionStatus, reviewedBy string, reviewedAt *time.Time) (*domain.RevisionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Status != from {
		return nil, repository.ErrRevisionClosed
	}
	req.Status = to
	req.ReviewedBy = reviewedBy
	req.ReviewedAt = nil
	if reviewedAt != nil {
		at := *reviewedAt
		req.ReviewedAt = &at
	}
	r.requests[id] = req
	c := cloneRevision(req)
	return &c, nil
}

func cloneRevision(req domain.RevisionRequest) domain.RevisionRequest {
	out := req
	out.TimeSlots = append([]string(nil), req.TimeSlots...)
	if req.ReviewedAt != nil {
		at := *req.ReviewedAt
		out.ReviewedAt = &at
	}
	return out
}

var _ repository.RevisionRepository = (*RevisionRepository)(nil)
