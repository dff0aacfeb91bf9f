package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	xerrors "singr-service/internal/pkg/errors"
	"singr-service/internal/pkg/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewManager(client, metrics.NewRegistry(), zap.NewNop()), mr
}

func TestCreateGet_RoundTrip(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, NewSession{UserID: "u1", Email: "a@example.com", Roles: []string{"singer"}})
	require.NoError(t, err)
	assert.Len(t, token, 36)
	assert.True(t, mr.Exists("session:"+token))
	assert.Equal(t, DefaultTTL, mr.TTL("session:"+token))

	got, err := m.Get(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, []string{"singer"}, got.Roles)
	assert.LessOrEqual(t, got.CreatedAt, got.ExpiresAt)
	assert.Equal(t, DefaultTTL.Milliseconds(), got.ExpiresAt-got.CreatedAt)
}

func TestGet_Missing(t *testing.T) {
	m, _ := newTestManager(t)

	got, err := m.Get(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGet_ExpiredRecordIsDeleted(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	raw, err := json.Marshal(SessionData{
		UserID:    "u1",
		Email:     "a@example.com",
		Roles:     []string{"singer"},
		CreatedAt: past.Add(-time.Hour).UnixMilli(),
		ExpiresAt: past.UnixMilli(),
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set("session:stale", string(raw)))
	mr.SetTTL("session:stale", time.Hour)

	got, err := m.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("session:stale"))

	got, err = m.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdate_MergesAndKeepsTTL(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, NewSession{UserID: "u1", Email: "a@example.com", Roles: []string{"singer"}})
	require.NoError(t, err)
	mr.FastForward(time.Hour)

	email := "b@example.com"
	ok, err := m.Update(ctx, token, Patch{Email: &email})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DefaultTTL-time.Hour, mr.TTL("session:"+token))

	got, err := m.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", got.Email)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, []string{"singer"}, got.Roles)
}

func TestUpdate_FallsBackToDefaultTTL(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	now := time.Now()
	raw, err := json.Marshal(SessionData{UserID: "u1", CreatedAt: now.UnixMilli(), ExpiresAt: now.Add(time.Hour).UnixMilli()})
	require.NoError(t, err)
	require.NoError(t, mr.Set("session:no-ttl", string(raw)))

	ok, err := m.Update(ctx, "no-ttl", Patch{Roles: []string{"admin"}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DefaultTTL, mr.TTL("session:no-ttl"))
}

func TestUpdate_AbsentOrInvalid(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	ok, err := m.Update(ctx, "missing", Patch{Roles: []string{"admin"}})
	require.NoError(t, err)
	assert.False(t, ok)

	token, err := m.Create(ctx, NewSession{UserID: "u1"})
	require.NoError(t, err)
	tooEarly := int64(0)
	_, err = m.Update(ctx, token, Patch{ExpiresAt: &tooEarly})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, NewSession{UserID: "u1"})
	require.NoError(t, err)

	ok, err := m.Delete(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Delete(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAllForUser(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	var mine, theirs []string
	for i := 0; i < 3; i++ {
		tok, err := m.Create(ctx, NewSession{UserID: "u1"})
		require.NoError(t, err)
		mine = append(mine, tok)
	}
	for i := 0; i < 2; i++ {
		tok, err := m.Create(ctx, NewSession{UserID: "u2"})
		require.NoError(t, err)
		theirs = append(theirs, tok)
	}
	require.NoError(t, mr.Set("session:corrupt", "{not json"))
	require.NoError(t, mr.Set("ratelimit:login:x", "1"))

	n, err := m.DeleteAllForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, tok := range mine {
		assert.False(t, mr.Exists("session:"+tok))
	}
	for _, tok := range theirs {
		assert.True(t, mr.Exists("session:"+tok))
	}
	assert.True(t, mr.Exists("session:corrupt"))
	assert.True(t, mr.Exists("ratelimit:login:x"))

	n, err = m.DeleteAllForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExtend(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, NewSession{UserID: "u1"})
	require.NoError(t, err)
	before, err := m.Get(ctx, token)
	require.NoError(t, err)

	ok, err := m.Extend(ctx, token, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DefaultTTL+time.Hour, mr.TTL("session:"+token))

	after, err := m.Get(ctx, token)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.ExpiresAt, before.ExpiresAt+time.Hour.Milliseconds())
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	ok, err = m.Extend(ctx, "missing", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Extend(ctx, token, 0)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestStoreFailuresSurface(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	mr.SetError("ERR connection lost")

	_, err := m.Create(ctx, NewSession{UserID: "u1"})
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)

	_, err = m.Get(ctx, "x")
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)

	_, err = m.Delete(ctx, "x")
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)

	_, err = m.DeleteAllForUser(ctx, "u1")
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)
}
