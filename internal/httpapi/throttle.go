package httpapi

import (
	"context"
	"time"

	"identity-gateway/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisLoginLimiter throttles login attempts with a redis fixed-window
// counter, shared across gateway instances.
type RedisLoginLimiter struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
}

func (l *RedisLoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return utils.AllowFixedWindow(ctx, l.Client, key, l.Limit, l.Window)
}
