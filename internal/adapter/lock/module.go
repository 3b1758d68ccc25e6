package lock

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/worker"
)

// Module provides the scheduler lease: Redis when configured, in-process otherwise.
var Module = fx.Provide(newLocker)

type lockerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newLocker(p lockerParams) worker.Locker {
	if p.Config.RedisAddr == "" {
		p.Logger.Warn("redis not configured, scheduler leases are process local")
		return NewLocalLocker(nil)
	}
	client := redis.NewClient(&redis.Options{Addr: p.Config.RedisAddr})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		OnStop:  func(context.Context) error { return client.Close() },
	})
	return NewRedisLocker(client, "")
}
