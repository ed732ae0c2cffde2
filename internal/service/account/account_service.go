package account

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/Domenick1991/roombooking/internal/audit"
	"github.com/Domenick1991/roombooking/internal/auth"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type AccountUseCase interface {
	ListUsers(ctx context.Context, page, perPage int, actor domain.Actor) (*UserPage, error)
	CreateUser(ctx context.Context, input CreateUserInput, actor domain.Actor) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput, actor domain.Actor) (*domain.User, error)
	DeleteUser(ctx context.Context, id string, actor domain.Actor) error
	ChangeRole(ctx context.Context, id string, role domain.Role, actor domain.Actor) (*domain.User, error)
	ApproveUser(ctx context.Context, id string, actor domain.Actor) (*domain.User, error)
	RejectUser(ctx context.Context, id string, actor domain.Actor) error
	SuspendUser(ctx context.Context, id string, actor domain.Actor) (*domain.User, error)
	ReactivateUser(ctx context.Context, id string, actor domain.Actor) (*domain.User, error)
}

type CreateUserInput struct {
	Username   string            `json:"username" validate:"required,min=3"`
	Password   string            `json:"password" validate:"required,password"`
	Name       string            `json:"name" validate:"required,min=3"`
	Email      string            `json:"email" validate:"required,email"`
	Role       domain.Role       `json:"role" validate:"required,oneof=admin editor usuario leitor"`
	Department string            `json:"department" validate:"max=100"`
	Status     domain.UserStatus `json:"status" validate:"omitempty,oneof=active pending inactive"`
}

// UpdateUserInput changes only the fields that are set.
type UpdateUserInput struct {
	Name       *string            `json:"name" validate:"omitempty,min=3"`
	Email      *string            `json:"email" validate:"omitempty,email"`
	Role       *domain.Role       `json:"role" validate:"omitempty,oneof=admin editor usuario leitor"`
	Department *string            `json:"department" validate:"omitempty,max=100"`
	Status     *domain.UserStatus `json:"status" validate:"omitempty,oneof=active pending inactive"`
	Password   *string            `json:"password" validate:"omitempty,password"`
}

func (in UpdateUserInput) empty() bool {
	return in.Name == nil && in.Email == nil && in.Role == nil && in.Department == nil && in.Status == nil && in.Password == nil
}

type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalPages int `json:"totalPages"`
}

type UserPage struct {
	Users []domain.User `json:"users"`
	Meta  PageMeta      `json:"meta"`
}

type AccountService struct {
	users    repository.UserRepository
	validate *validator.Validate
	audit    audit.Recorder
	log      logrus.FieldLogger
	timeout  time.Duration
	now      func() time.Time
	newID    func() string
}

type AccountServiceOption func(*AccountService)

func WithAudit(recorder audit.Recorder) AccountServiceOption {
	return func(s *AccountService) {
		s.audit = recorder
	}
}

func WithLogger(log logrus.FieldLogger) AccountServiceOption {
	return func(s *AccountService) {
		s.log = log
	}
}

// WithRequestTimeout bounds calls whose context has no deadline.
func WithRequestTimeout(timeout time.Duration) AccountServiceOption {
	return func(s *AccountService) {
		s.timeout = timeout
	}
}

func NewAccountService(users repository.UserRepository, opts ...AccountServiceOption) *AccountService {
	s := &AccountService{
		users:    users,
		validate: newValidator(),
		audit:    audit.Nop{},
		log:      logrus.StandardLogger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListUsers pages over every account, oldest first. page starts at 1 and
// perPage is capped at 100.
func (s *AccountService) ListUsers(ctx context.Context, page, perPage int, actor domain.Actor) (*UserPage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if page < 1 {
		page = 1
	}
	switch {
	case perPage < 1:
		perPage = defaultPerPage
	case perPage > maxPerPage:
		perPage = maxPerPage
	}

	all, err := s.users.List(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	total := len(all)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	return &UserPage{
		Users: all[start:end],
		Meta:  PageMeta{Total: total, Page: page, PerPage: perPage, TotalPages: totalPages},
	}, nil
}

// CreateUser registers an account. Accounts start pending unless a status is given.
func (s *AccountService) CreateUser(ctx context.Context, input CreateUserInput, actor domain.Actor) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Department = strings.TrimSpace(input.Department)
	if err := s.check(input); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, domain.Internal("", err)
	}
	now := s.now().UTC()
	user := &domain.User{
		ID:           s.newID(),
		Username:     input.Username,
		PasswordHash: hash,
		Name:         input.Name,
		Email:        input.Email,
		Role:         input.Role,
		Department:   input.Department,
		Status:       input.Status,
		CreatedAt:    now,
	}
	if user.Status == "" {
		user.Status = domain.UserStatusPending
	}
	if user.Status == domain.UserStatusActive {
		user.ReviewedBy = actor.Name
		user.ReviewedAt = &now
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.fail(err)
	}

	s.record(ctx, actor, "create_user", user.ID, fmt.Sprintf("user created: %s", user.Name))
	return user, nil
}

func (s *AccountService) UpdateUser(ctx context.Context, id string, input UpdateUserInput, actor domain.Actor) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.empty() {
		return nil, domain.BadRequest("provide at least one field to update", nil)
	}
	trim(input.Name)
	trim(input.Department)
	if input.Email != nil {
		*input.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if err := s.check(input); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Department != nil {
		user.Department = *input.Department
	}
	if input.Status != nil && *input.Status != user.Status {
		now := s.now().UTC()
		user.Status = *input.Status
		user.ReviewedBy = actor.Name
		user.ReviewedAt = &now
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, domain.Internal("", err)
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, s.fail(err)
	}

	s.record(ctx, actor, "update_user", user.ID, fmt.Sprintf("user updated: %s", user.Name))
	return user, nil
}

func (s *AccountService) DeleteUser(ctx context.Context, id string, actor domain.Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return domain.BadRequest("you cannot delete your own account", nil)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.users.Delete(ctx, id); err != nil {
		return s.fail(err)
	}
	s.record(ctx, actor, "delete_user", id, fmt.Sprintf("user removed: %s", id))
	return nil
}

func (s *AccountService) ChangeRole(ctx context.Context, id string, role domain.Role, actor domain.Actor) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if role == "" {
		return nil, domain.BadRequest("role is required", map[string]any{"field": "role"})
	}
	if !role.Valid() {
		return nil, domain.BadRequest("unknown role", map[string]any{"role": role})
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, s.fail(err)
	}
	s.record(ctx, actor, "change_role", user.ID, fmt.Sprintf("role changed: %s => %s", user.Name, user.Role))
	return user, nil
}

// ApproveUser activates a pending account.
func (s *AccountService) ApproveUser(ctx context.Context, id string, actor domain.Actor) (*domain.User, error) {
	return s.transition(ctx, id, actor, domain.UserStatusPending, domain.UserStatusActive, "approve_user", "user approved")
}

// RejectUser removes a pending account.
func (s *AccountService) RejectUser(ctx context.Context, id string, actor domain.Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return s.fail(err)
	}
	if user.Status != domain.UserStatusPending {
		return wrongStatus(user, domain.UserStatusPending)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return s.fail(err)
	}
	s.record(ctx, actor, "reject_user", id, fmt.Sprintf("account request rejected: %s", user.Name))
	return nil
}

// SuspendUser makes an active account inactive. Inactive accounts cannot sign in.
func (s *AccountService) SuspendUser(ctx context.Context, id string, actor domain.Actor) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if id == actor.ID {
		return nil, domain.BadRequest("you cannot suspend your own account", nil)
	}
	return s.transition(ctx, id, actor, domain.UserStatusActive, domain.UserStatusInactive, "suspend_user", "user suspended")
}

func (s *AccountService) ReactivateUser(ctx context.Context, id string, actor domain.Actor) (*domain.User, error) {
	return s.transition(ctx, id, actor, domain.UserStatusInactive, domain.UserStatusActive, "reactivate_user", "user reactivated")
}

func (s *AccountService) transition(ctx context.Context, id string, actor domain.Actor, from, to domain.UserStatus, operation, summary string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.SetStatus(ctx, id, from, to, actor.Name, s.now().UTC())
	if err != nil {
		if !errors.Is(err, repository.ErrUserStatusChanged) {
			return nil, s.fail(err)
		}
		current, findErr := s.users.FindByID(ctx, id)
		if findErr != nil {
			return nil, s.fail(findErr)
		}
		return nil, wrongStatus(current, from)
	}
	s.record(ctx, actor, operation, user.ID, fmt.Sprintf("%s: %s", summary, user.Name))
	return user, nil
}

func (s *AccountService) record(ctx context.Context, actor domain.Actor, operation, userID, details string) {
	s.log.WithFields(logrus.Fields{
		"operation": operation,
		"user_id":   userID,
		"actor_id":  actor.ID,
	}).Info(details)
	s.audit.Record(ctx, actor, domain.ActionManageUser, details, userID)
}

// check runs the struct tags and reports every failing field by its json name.
func (s *AccountService) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return domain.Internal("", err)
	}
	details := make(map[string]any, len(invalid))
	for _, fe := range invalid {
		details[fe.Field()] = fe.Tag()
	}
	return domain.BadRequest("invalid user data", details)
}

func (s *AccountService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *AccountService) fail(err error) error {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFound("user not found")
	case errors.Is(err, repository.ErrUsernameTaken):
		return domain.Conflict("username already in use", map[string]any{"field": "username"})
	case errors.Is(err, repository.ErrEmailTaken):
		return domain.Conflict("email already in use", map[string]any{"field": "email"})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.Internal("request timed out", err)
	}
	s.log.WithError(err).Error("user store failure")
	return domain.Internal("", err)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// at least 8 characters with an upper case letter, a lower case letter and a digit
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		pw := fl.Field().String()
		var upper, lower, digit bool
		for _, r := range pw {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return len([]rune(pw)) >= 8 && upper && lower && digit
	})
	return v
}

func requireAdmin(actor domain.Actor) error {
	if actor.ID == "" {
		return domain.Unauthorized("")
	}
	if !actor.HasRole(domain.RoleAdmin) {
		return domain.Forbidden("")
	}
	return nil
}

func wrongStatus(user *domain.User, want domain.UserStatus) error {
	return domain.BadRequest(fmt.Sprintf("account is %s, expected %s", user.Status, want), map[string]any{
		"userId": user.ID,
		"status": user.Status,
	})
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

var _ AccountUseCase = (*AccountService)(nil)
