package lock

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/test"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/worker"
)

var (
	_ worker.Locker = (*RedisLocker)(nil)
	_ worker.Locker = (*LocalLocker)(nil)
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func TestRedisLockerExclusive(t *testing.T) {
	s, client := newRedis(t)
	ctx := context.Background()
	first := NewRedisLocker(client, "test:")
	second := NewRedisLocker(client, "test:")

	release, ok, err := first.TryLock(ctx, "scheduler:auto-confirm", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, s.Exists("test:scheduler:auto-confirm"))

	_, ok, err = second.TryLock(ctx, "scheduler:auto-confirm", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "lease is held by the first instance")

	_, ok, err = second.TryLock(ctx, "scheduler:offer-expiry", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "other jobs are independent")

	require.NoError(t, release(ctx))
	assert.False(t, s.Exists("test:scheduler:auto-confirm"))

	_, ok, err = second.TryLock(ctx, "scheduler:auto-confirm", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerLeaseExpiry(t *testing.T) {
	s, client := newRedis(t)
	ctx := context.Background()
	locker := NewRedisLocker(client, "")

	staleRelease, ok, err := locker.TryLock(ctx, "job", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(2 * time.Second)
	_, ok, err = locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired lease can be taken over")

	require.NoError(t, staleRelease(ctx))
	assert.True(t, s.Exists(defaultPrefix+"job"), "stale holder must not delete the new lease")
}

func TestRedisLockerErrors(t *testing.T) {
	s, client := newRedis(t)
	locker := NewRedisLocker(client, "")

	_, _, err := locker.TryLock(context.Background(), "job", 0)
	require.Error(t, err)

	s.Close()
	_, ok, err := locker.TryLock(context.Background(), "job", time.Minute)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestLocalLocker(t *testing.T) {
	clock := test.NewManualClock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	locker := NewLocalLocker(clock.Now)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = locker.TryLock(ctx, "job", time.Minute)
	assert.False(t, ok)

	clock.Advance(2 * time.Minute)
	newRelease, ok, _ := locker.TryLock(ctx, "job", time.Minute)
	require.True(t, ok)

	require.NoError(t, release(ctx))
	_, ok, _ = locker.TryLock(ctx, "job", time.Minute)
	assert.False(t, ok, "stale release leaves the new lease alone")

	require.NoError(t, newRelease(ctx))
	_, ok, _ = locker.TryLock(ctx, "job", time.Minute)
	assert.True(t, ok)
}

func TestNewLocker(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	local := newLocker(lockerParams{Lifecycle: fxtest.NewLifecycle(t), Config: &config.Config{}, Logger: logger})
	assert.IsType(t, &LocalLocker{}, local)

	s, _ := newRedis(t)
	lc := fxtest.NewLifecycle(t)
	remote := newLocker(lockerParams{Lifecycle: lc, Config: &config.Config{RedisAddr: s.Addr()}, Logger: logger})
	assert.IsType(t, &RedisLocker{}, remote)
	lc.RequireStart()
	lc.RequireStop()
}
