// Package lock provides keyed critical sections. Local serializes within one
// process; Redis serializes across instances with redislock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/diviso/diviso/internal/apperr"
)

// Locker runs fn while holding the named key.
type Locker interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Local is an in-process Locker.
type Local struct {
	mu   sync.Mutex
	keys map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

// NewLocal creates an in-process locker.
func NewLocal() *Local {
	return &Local{keys: make(map[string]*entry)}
}

// Do blocks until key is free or ctx is done.
func (l *Local) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.keys, key)
		}
		l.mu.Unlock()
	}()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.sem }()

	return fn(ctx)
}

// Redis is a distributed Locker backed by redislock.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedis creates a Redis locker. ttl bounds how long a crashed holder can
// keep a key.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	}
}

// Do obtains "lock:<key>", retrying briefly. A key that stays busy is
// reported as a conflict so the caller can retry.
func (r *Redis) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := fmt.Sprintf("lock:%s", key)
	lk, err := r.client.Obtain(ctx, lockKey, r.ttl, &redislock.Options{RetryStrategy: r.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return apperr.Conflict("%s is busy, try again", key)
	}
	if err != nil {
		return fmt.Errorf("failed to obtain lock %s: %w", lockKey, err)
	}
	defer func() {
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			slog.Warn("failed to release lock", "key", lockKey, "error", err)
		}
	}()

	return fn(ctx)
}
