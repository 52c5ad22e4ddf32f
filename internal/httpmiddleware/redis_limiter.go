package httpmiddleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow is a fixed one-minute window limiter shared by every instance
// pointing at the same Redis.
type RedisWindow struct {
	client    *redis.Client
	perMinute int
	prefix    string
	now       func() time.Time
}

// NewRedisWindow builds a limiter allowing perMinute requests per key.
func NewRedisWindow(client *redis.Client, perMinute int) *RedisWindow {
	return &RedisWindow{
		client:    client,
		perMinute: perMinute,
		prefix:    "attendbot:ratelimit",
		now:       time.Now,
	}
}

func (l *RedisWindow) key(ip string) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, ip, l.now().Unix()/60)
}

func (l *RedisWindow) Allow(ctx context.Context, ip string) (bool, error) {
	key := l.key(ip)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.perMinute), nil
}
