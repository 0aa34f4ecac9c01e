package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and session", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.users()

		user, sess, err := svc.Signup(ctx, SignupParams{
			Email:    "  Jamie@Example.COM ",
			Password: "hunter2hunter2",
			Name:     "Jamie",
		})
		require.NoError(t, err)
		assert.Equal(t, "jamie@example.com", user.Email)
		assert.Equal(t, model.RoleCustomer, user.Role)
		assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
		assert.Len(t, sess.Token, 64)
		assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), sess.ExpiresAt, time.Minute)
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.users()

		_, _, err := svc.Signup(ctx, SignupParams{Email: "jamie@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)
		_, _, err = svc.Signup(ctx, SignupParams{Email: "JAMIE@example.com", Password: "different9chars"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.users()

	_, _, err := svc.Signup(ctx, SignupParams{Email: "jamie@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, sess, err := svc.Login(ctx, "jamie@example.com", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, "jamie@example.com", user.Email)
		assert.NotEmpty(t, sess.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "jamie@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.users()

	user, sess, err := svc.Signup(ctx, SignupParams{Email: "jamie@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "bogus")
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	})

	t.Run("expired token", func(t *testing.T) {
		expired := &model.Session{
			Token:     "expiredtoken",
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, env.stores.Sessions.CreateSession(ctx, expired))

		_, err := svc.Authenticate(ctx, "expiredtoken")
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, sess.Token))
		_, err := svc.Authenticate(ctx, sess.Token)
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	})
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the bootstrap admin once", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.users()

		require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrappass"))
		require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrappass"))

		users, err := svc.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, model.RoleAdmin, users[0].Role)

		_, _, err = svc.Login(ctx, "admin@example.com", "bootstrappass")
		assert.NoError(t, err)
	})

	t.Run("no-op without configuration", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.users()

		require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
		users, err := svc.ListUsers(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.users()

	user, _, err := svc.Signup(ctx, SignupParams{Email: "jamie@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, user.ID, UpdateUserParams{Name: "Jamie R", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Jamie R", updated.Name)
	assert.True(t, updated.IsAdmin())

	_, err = svc.UpdateUser(ctx, user.ID, UpdateUserParams{Role: "owner"})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestSweepExpiredSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.users()

	user, live, err := svc.Signup(ctx, SignupParams{Email: "jamie@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	require.NoError(t, env.stores.Sessions.CreateSession(ctx, &model.Session{
		Token:     "deadtoken",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	n, err := svc.SweepExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.Authenticate(ctx, live.Token)
	assert.NoError(t, err)
}
