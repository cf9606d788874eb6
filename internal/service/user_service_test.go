package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"Bulletin_Board/internal/logger"
	"Bulletin_Board/internal/model"
	"Bulletin_Board/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestUserService(t *testing.T) (*UserService, *memTokens, *pkg.TokenIssuer) {
	t.Helper()
	tokens := newMemTokens()
	issuer := pkg.NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	return NewUserService(newTestDB(t), tokens, issuer, logger.NewNop()), tokens, issuer
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, alice.Role)
	assert.NotEqual(t, "pw", alice.Password)

	admin, err := svc.Register(ctx, "admin", "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	_, err = svc.Register(ctx, "alice", "other@example.com", "pw")
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = svc.Register(ctx, "bob", "alice@example.com", "pw")
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = svc.Register(ctx, "", "x@example.com", "pw")
	assert.ErrorIs(t, err, pkg.ErrValidation)

	stored, err := svc.Authenticate(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, stored.Role)
}

func TestLogin(t *testing.T) {
	svc, tokens, issuer := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "secret")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	stored, err := tokens.GetUserToken(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, stored)

	claims, err := issuer.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "USER", claims.Role)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	stored, err = tokens.GetUserToken(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, refreshed.AccessToken, stored)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, err = tokens.GetUserToken(ctx, u.ID)
	assert.Error(t, err)
}

func TestUpdateUser(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "old")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Update(ctx, "alice", "bob@example.com", "new"), pkg.ErrAlreadyExists)
	assert.ErrorIs(t, svc.Update(ctx, "ghost", "g@example.com", "new"), pkg.ErrNotFound)

	// 邮箱不变时只更新密码
	require.NoError(t, svc.Update(ctx, "alice", "alice@example.com", "new"))
	_, err = svc.Login(ctx, "alice", "new")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "old")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	require.NoError(t, svc.Update(ctx, "alice", "alice2@example.com", "new"))
	u, err := svc.Authenticate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice2@example.com", u.Email)
}

func TestDeleteAndListUsers(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	b, err := svc.Register(ctx, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []UserSummary{
		{ID: a.ID, Username: "alice", Email: "alice@example.com"},
		{ID: b.ID, Username: "bob", Email: "bob@example.com"},
	}, list)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), pkg.ErrNotFound)
	_, err = svc.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

type brokenTokens struct{ *memTokens }

func (brokenTokens) DeleteUserToken(context.Context, uint64) error {
	return errors.New("redis down")
}

func TestDeleteUserTokenFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tokens := brokenTokens{newMemTokens()}
	issuer := pkg.NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	svc := NewUserService(newTestDB(t), tokens, issuer, &logger.Logger{Logger: zap.New(core)})
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, u.ID))
	_, err = svc.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	entries := logs.FilterMessage("session token delete failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, u.ID, fields["user_id"])
	assert.Equal(t, "redis down", fields["error"])
}
