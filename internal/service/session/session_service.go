package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/roombooking/internal/audit"
	"github.com/Domenick1991/roombooking/internal/auth"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/sirupsen/logrus"
)

const invalidCredentials = "invalid username or password"

type SessionUseCase interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Me(ctx context.Context, actor domain.Actor) (*domain.User, error)
	Logout(ctx context.Context, actor domain.Actor) error
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type TokenIssuer interface {
	Issue(user domain.User) (string, time.Time, error)
}

type SessionService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	audit  audit.Recorder
	log    logrus.FieldLogger
	now    func() time.Time
}

type SessionServiceOption func(*SessionService)

func WithAudit(recorder audit.Recorder) SessionServiceOption {
	return func(s *SessionService) {
		s.audit = recorder
	}
}

func WithLogger(log logrus.FieldLogger) SessionServiceOption {
	return func(s *SessionService) {
		s.log = log
	}
}

func NewSessionService(users repository.UserRepository, tokens TokenIssuer, opts ...SessionServiceOption) *SessionService {
	s := &SessionService{
		users:  users,
		tokens: tokens,
		audit:  audit.Nop{},
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks credentials and issues a bearer token. Unknown users and wrong
// passwords produce the same error. Sign-ins are not written to the activity log.
func (s *SessionService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.BadRequest("username and password are required", nil)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Unauthorized(invalidCredentials)
		}
		s.log.WithError(err).Error("user lookup failed")
		return nil, domain.Internal("", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.log.WithField("username", username).Warn("login rejected")
		return nil, domain.Unauthorized(invalidCredentials)
	}
	if user.Status != domain.UserStatusActive {
		return nil, domain.Unauthorized("account is not active")
	}

	token, expires, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, domain.Internal("", err)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("could not record last login")
	} else {
		user.LastLogin = &now
	}

	s.log.WithField("user_id", user.ID).Info("user signed in")
	return &Session{Token: token, ExpiresAt: expires, User: *user}, nil
}

func (s *SessionService) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if actor.ID == "" {
		return nil, domain.Unauthorized("")
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Unauthorized("user no longer exists")
		}
		return nil, domain.Internal("", err)
	}
	return user, nil
}

// Logout records the sign-out. Tokens are stateless and stay valid until they expire.
func (s *SessionService) Logout(ctx context.Context, actor domain.Actor) error {
	if actor.ID == "" {
		return domain.Unauthorized("")
	}
	s.audit.Record(ctx, actor, domain.ActionLogout, fmt.Sprintf("user signed out: %s", actor.Name), actor.ID)
	return nil
}

var _ SessionUseCase = (*SessionService)(nil)
