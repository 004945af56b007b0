package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter with counters shared by every instance.
// Each window gets its own key, incremented and given a TTL atomically.
type Redis struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedis allows limit calls per window per key. prefix namespaces the
// counters, e.g. "ratelimit:lookup".
func NewRedis(rdb *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{
		rdb:    rdb,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	index := now.UnixNano() / int64(r.window)
	windowStart := time.Unix(0, index*int64(r.window))
	counterKey := fmt.Sprintf("%s:%s:%d", r.prefix, key, index)

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, counterKey)
		pipe.Expire(ctx, counterKey, r.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate counter: %w", err)
	}

	return decide(int(incr.Val()), r.limit, windowStart.Add(r.window)), nil
}
