package account

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/roombooking/internal/auth"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, actor domain.Actor, action, details, affectedResource string) {
	m.Called(ctx, actor, action, details, affectedResource)
}

var (
	admin  = domain.Actor{ID: "admin1", Name: "Administrador NAMI", Role: domain.RoleAdmin}
	editor = domain.Actor{ID: "coord1", Name: "Coordenadora Nutrição", Role: domain.RoleEditor}
)

func newService(t *testing.T, opts ...AccountServiceOption) (*AccountService, *memory.UserRepository) {
	t.Helper()
	base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	users := memory.NewUserRepository([]domain.User{
		{ID: "admin1", Username: "admin.nami", Name: "Administrador NAMI", Email: "admin.nami@unifor.br", Role: domain.RoleAdmin, Status: domain.UserStatusActive, CreatedAt: base},
		{ID: "coord1", Username: "coord.nutricao", Name: "Coordenadora Nutrição", Email: "coord.nutricao@unifor.br", Role: domain.RoleEditor, Status: domain.UserStatusActive, CreatedAt: base.Add(time.Hour)},
		{ID: "new1", Username: "novo.prof", Name: "Novo Professor", Email: "novo.prof@unifor.br", Role: domain.RoleUser, Status: domain.UserStatusPending, CreatedAt: base.Add(2 * time.Hour)},
	})
	return NewAccountService(users, opts...), users
}

func validInput() CreateUserInput {
	return CreateUserInput{
		Username: "  maria.lima ",
		Password: "Senha123",
		Name:     "Maria Lima",
		Email:    " Maria.Lima@Unifor.br ",
		Role:     domain.RoleUser,
	}
}

func TestCreateUser(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, admin, domain.ActionManageUser, "user created: Maria Lima", mock.Anything).Once()
	service, users := newService(t, WithAudit(recorder))
	ctx := context.Background()

	user, err := service.CreateUser(ctx, validInput(), admin)
	require.NoError(t, err)
	assert.Equal(t, "maria.lima", user.Username)
	assert.Equal(t, "maria.lima@unifor.br", user.Email)
	assert.Equal(t, domain.UserStatusPending, user.Status)
	assert.Empty(t, user.ReviewedBy)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "Senha123"))

	stored, err := users.FindByUsername(ctx, "MARIA.LIMA")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	recorder.AssertExpectations(t)
}

func TestCreateUser_ActiveIsReviewed(t *testing.T) {
	service, _ := newService(t)
	in := validInput()
	in.Status = domain.UserStatusActive

	user, err := service.CreateUser(context.Background(), in, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.Equal(t, "Administrador NAMI", user.ReviewedBy)
	assert.NotNil(t, user.ReviewedAt)
}

func TestCreateUser_Invalid(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	testCases := []struct {
		name   string
		mutate func(*CreateUserInput)
		field  string
		tag    string
	}{
		{name: "short username", mutate: func(in *CreateUserInput) { in.Username = " ab " }, field: "username", tag: "min"},
		{name: "weak password", mutate: func(in *CreateUserInput) { in.Password = "senha1234" }, field: "password", tag: "password"},
		{name: "short password", mutate: func(in *CreateUserInput) { in.Password = "Se1" }, field: "password", tag: "password"},
		{name: "bad email", mutate: func(in *CreateUserInput) { in.Email = "not-an-email" }, field: "email", tag: "email"},
		{name: "unknown role", mutate: func(in *CreateUserInput) { in.Role = "root" }, field: "role", tag: "oneof"},
		{name: "unknown status", mutate: func(in *CreateUserInput) { in.Status = "suspended" }, field: "status", tag: "oneof"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := service.CreateUser(ctx, in, admin)
			require.Error(t, err)
			de := domain.AsError(err)
			assert.Equal(t, domain.KindBadRequest, de.Kind)
			assert.Equal(t, tc.tag, de.Details[tc.field])
		})
	}
}

func TestCreateUser_Duplicates(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	in := validInput()
	in.Username = "ADMIN.nami"
	_, err := service.CreateUser(ctx, in, admin)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, "username", domain.AsError(err).Details["field"])

	in = validInput()
	in.Email = "COORD.nutricao@unifor.br"
	_, err = service.CreateUser(ctx, in, admin)
	require.Error(t, err)
	assert.Equal(t, "email", domain.AsError(err).Details["field"])
}

func TestAccountService_RequiresAdmin(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, err := service.ListUsers(ctx, 1, 20, editor)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	_, err = service.CreateUser(ctx, validInput(), domain.Actor{})
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	_, err = service.ApproveUser(ctx, "new1", editor)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	_, err = service.SuspendUser(ctx, "coord1", editor)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(service.DeleteUser(ctx, "new1", editor)))
}

func TestListUsers_Pagination(t *testing.T) {
	service, users := newService(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, users.Create(ctx, &domain.User{
			ID:        fmt.Sprintf("extra%d", i),
			Username:  fmt.Sprintf("extra.%d", i),
			Email:     fmt.Sprintf("extra%d@unifor.br", i),
			CreatedAt: time.Date(2025, 1, 1, i, 0, 0, 0, time.UTC),
		}))
	}

	page, err := service.ListUsers(ctx, 2, 3, admin)
	require.NoError(t, err)
	assert.Equal(t, PageMeta{Total: 7, Page: 2, PerPage: 3, TotalPages: 3}, page.Meta)
	require.Len(t, page.Users, 3)
	assert.Equal(t, "extra0", page.Users[0].ID)

	page, err = service.ListUsers(ctx, 9, 500, admin)
	require.NoError(t, err)
	assert.Equal(t, 100, page.Meta.PerPage)
	assert.Empty(t, page.Users)

	page, err = service.ListUsers(ctx, 0, 0, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Meta.Page)
	assert.Equal(t, 20, page.Meta.PerPage)
	assert.Len(t, page.Users, 7)
}

func TestUpdateUser(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	name := "  Coordenadora Geral "
	role := domain.RoleAdmin
	password := "NovaSenha9"
	user, err := service.UpdateUser(ctx, "coord1", UpdateUserInput{Name: &name, Role: &role, Password: &password}, admin)
	require.NoError(t, err)
	assert.Equal(t, "Coordenadora Geral", user.Name)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "coord.nutricao@unifor.br", user.Email)
	assert.True(t, auth.CheckPassword(user.PasswordHash, password))

	_, err = service.UpdateUser(ctx, "coord1", UpdateUserInput{}, admin)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	email := "admin.nami@unifor.br"
	_, err = service.UpdateUser(ctx, "coord1", UpdateUserInput{Email: &email}, admin)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = service.UpdateUser(ctx, "ghost", UpdateUserInput{Name: &name}, admin)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestApproveAndRejectPending(t *testing.T) {
	service, users := newService(t)
	ctx := context.Background()

	approved, err := service.ApproveUser(ctx, "new1", admin)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, approved.Status)
	assert.Equal(t, "Administrador NAMI", approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)

	_, err = service.ApproveUser(ctx, "new1", admin)
	require.Error(t, err)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	assert.Equal(t, domain.UserStatusActive, domain.AsError(err).Details["status"])

	err = service.RejectUser(ctx, "new1", admin)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	in := validInput()
	pending, err := service.CreateUser(ctx, in, admin)
	require.NoError(t, err)
	require.NoError(t, service.RejectUser(ctx, pending.ID, admin))
	_, err = users.FindByID(ctx, pending.ID)
	assert.Error(t, err)
}

func TestSuspendAndReactivate(t *testing.T) {
	service, users := newService(t)
	ctx := context.Background()

	suspended, err := service.SuspendUser(ctx, "coord1", admin)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusInactive, suspended.Status)

	_, err = service.SuspendUser(ctx, "coord1", admin)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	_, err = service.SuspendUser(ctx, "admin1", admin)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	reactivated, err := service.ReactivateUser(ctx, "coord1", admin)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, reactivated.Status)

	_, err = service.ReactivateUser(ctx, "ghost", admin)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	stored, err := users.FindByID(ctx, "coord1")
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, stored.Status)
}

func TestChangeRoleAndDelete(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, admin, domain.ActionManageUser, mock.Anything, mock.Anything)
	service, users := newService(t, WithAudit(recorder))
	ctx := context.Background()

	user, err := service.ChangeRole(ctx, "coord1", domain.RoleReader, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleReader, user.Role)
	recorder.AssertCalled(t, "Record", mock.Anything, admin, domain.ActionManageUser, "role changed: Coordenadora Nutrição => leitor", "coord1")

	_, err = service.ChangeRole(ctx, "coord1", "root", admin)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	_, err = service.ChangeRole(ctx, "coord1", "", admin)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	assert.Equal(t, domain.KindBadRequest, domain.KindOf(service.DeleteUser(ctx, "admin1", admin)))
	require.NoError(t, service.DeleteUser(ctx, "coord1", admin))
	_, err = users.FindByID(ctx, "coord1")
	assert.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(service.DeleteUser(ctx, "coord1", admin)))
}
