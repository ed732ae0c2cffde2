package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository(users []domain.User) *UserRepository {
	r := &UserRepository{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
	}
	return r
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneUser(u)
	return &c, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	r.users[id] = u
	return nil
}

func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("insert user: duplicate id %s", user.ID)
	}
	if err := r.checkUnique(*user); err != nil {
		return err
	}
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUnique(*user); err != nil {
		return err
	}
	next := cloneUser(*user)
	next.Username = stored.Username
	next.CreatedAt = stored.CreatedAt
	next.LastLogin = stored.LastLogin
	r.users[user.ID] = next
	return nil
}

func (r *UserRepository) SetStatus(_ context.Context, id string, from, to domain.UserStatus, reviewedBy string, reviewedAt time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.Status != from {
		return nil, repository.ErrUserStatusChanged
	}
	u.Status = to
	u.ReviewedBy = reviewedBy
	u.ReviewedAt = &reviewedAt
	r.users[id] = u
	c := cloneUser(u)
	return &c, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// checkUnique must be called with mu held.
func (r *UserRepository) checkUnique(user domain.User) error {
	for _, u := range r.users {
		if u.ID == user.ID {
			continue
		}
		if strings.EqualFold(u.Username, user.Username) {
			return repository.ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailTaken
		}
	}
	return nil
}

func cloneUser(u domain.User) domain.User {
	out := u
	if u.LastLogin != nil {
		at := *u.LastLogin
		out.LastLogin = &at
	}
	if u.ReviewedAt != nil {
		at := *u.ReviewedAt
		out.ReviewedAt = &at
	}
	return out
}

var _ repository.UserRepository = (*UserRepository)(nil)
