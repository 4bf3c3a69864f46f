package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/wallet-ledger/internal/auth"
	"github.com/baharkarakas/wallet-ledger/internal/lifecycle"
	"github.com/baharkarakas/wallet-ledger/internal/models"
	"github.com/baharkarakas/wallet-ledger/internal/repository/memory"
)

func newUserService() *UserService {
	repos := memory.NewRepositories(memory.New())
	return NewUserService(repos.Users, auth.NewTokenManager("a", "r", time.Minute, time.Hour))
}

func TestUserService_RegisterLoginRefresh(t *testing.T) {
	s := newUserService()
	ctx := context.Background()

	u, err := s.Register(ctx, RegisterInput{Username: "hanna", Email: " Hanna@Example.com ", Password: "longenough", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role, "self-registration cannot pick a role")
	assert.Equal(t, "hanna@example.com", u.Email)
	assert.NotEqual(t, "longenough", u.PasswordHash)

	_, err = s.Register(ctx, RegisterInput{Username: "hanna2", Email: "hanna@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = s.Login(ctx, "hanna@example.com", "wrong-password")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = s.Login(ctx, "nobody@example.com", "longenough")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	sess, err := s.Login(ctx, "HANNA@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.NotEmpty(t, sess.AccessToken)

	again, err := s.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.User.ID)

	_, err = s.Refresh(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestUserService_Validation(t *testing.T) {
	s := newUserService()
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Username: "ab", Email: "a@b.c", Password: "longenough"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = s.Register(ctx, RegisterInput{Username: "abc", Email: "nope", Password: "longenough"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = s.Register(ctx, RegisterInput{Username: "abc", Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUserService_AdminCreatesStaff(t *testing.T) {
	s := newUserService()
	ctx := context.Background()

	require.NoError(t, s.EnsureAdmin(ctx, "root@example.com", "rootpassword"))
	require.NoError(t, s.EnsureAdmin(ctx, "root@example.com", "rootpassword"))
	sess, err := s.Login(ctx, "root@example.com", "rootpassword")
	require.NoError(t, err)
	admin := lifecycle.Actor{UserID: sess.User.ID, Role: sess.User.Role}
	assert.Equal(t, models.RoleAdmin, admin.Role)

	op, err := s.Create(ctx, admin, RegisterInput{Username: "teller", Email: "teller@example.com", Password: "tellerpass", Role: models.RoleOperator})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, op.Role)

	_, err = s.Create(ctx, lifecycle.Actor{UserID: op.ID, Role: op.Role}, RegisterInput{Username: "x", Email: "x@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = s.Create(ctx, admin, RegisterInput{Username: "bad", Email: "bad@example.com", Password: "whatever1", Role: "root"})
	assert.ErrorIs(t, err, models.ErrValidation)

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
