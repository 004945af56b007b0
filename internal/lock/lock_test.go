package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/diviso/diviso/internal/apperr"
)

func newRedisLocker(t *testing.T, mr *miniredis.Miniredis) *Redis {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	r := NewRedis(rdb, 5*time.Second)
	r.retry = redislock.LimitRetry(redislock.LinearBackoff(5*time.Millisecond), 1000)
	return r
}

func TestSerializesSameKey(t *testing.T) {
	mr := miniredis.RunT(t)
	lockers := map[string]Locker{
		"local": NewLocal(),
		"redis": newRedisLocker(t, mr),
	}
	for name, l := range lockers {
		t.Run(name, func(t *testing.T) {
			if got := maxConcurrent(t, []Locker{l}); got != 1 {
				t.Errorf("max concurrent holders = %d, want 1", got)
			}
		})
	}

	t.Run("redis across instances", func(t *testing.T) {
		instances := []Locker{newRedisLocker(t, mr), newRedisLocker(t, mr)}
		if got := maxConcurrent(t, instances); got != 1 {
			t.Errorf("max concurrent holders = %d, want 1", got)
		}
		if len(mr.Keys()) != 0 {
			t.Errorf("locks left behind: %v", mr.Keys())
		}
	})

	if local := lockers["local"].(*Local); len(local.keys) != 0 {
		t.Errorf("expected keys to be cleaned up, got %d", len(local.keys))
	}
}

// maxConcurrent runs ten holders of one key spread over lockers and reports
// the largest number seen inside the critical section at once.
func maxConcurrent(t *testing.T, lockers []Locker) int32 {
	t.Helper()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		l := lockers[i%len(lockers)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), "expense:1", func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}
	wg.Wait()
	return atomic.LoadInt32(&maxInside)
}

func TestLocalDifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	entered := make(chan struct{})
	release := make(chan struct{})

	go l.Do(context.Background(), "a", func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	})
	<-entered

	done := make(chan struct{})
	go func() {
		l.Do(context.Background(), "b", func(ctx context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key b blocked behind key a")
	}
	close(release)
}

func TestLocalHonorsContext(t *testing.T) {
	l := NewLocal()
	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go l.Do(context.Background(), "k", func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	})
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Do(ctx, "k", func(ctx context.Context) error {
		t.Error("fn must not run while the key is held")
		return nil
	})
	if err != context.DeadlineExceeded {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestRedisBusyKeyIsConflict(t *testing.T) {
	mr := miniredis.RunT(t)
	holder := newRedisLocker(t, mr)
	other := newRedisLocker(t, mr)
	other.retry = redislock.NoRetry()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- holder.Do(context.Background(), "purchase:1", func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	err := other.Do(context.Background(), "purchase:1", func(ctx context.Context) error {
		t.Error("fn must not run while another instance holds the key")
		return nil
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("err = %v, want conflict", err)
	}

	if err := other.Do(context.Background(), "purchase:2", func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("other keys must stay available: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder Do failed: %v", err)
	}
	if err := other.Do(context.Background(), "purchase:1", func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("released key should be free: %v", err)
	}
}

func TestRedisReturnsFnError(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newRedisLocker(t, mr)
	boom := errors.New("boom")
	if err := l.Do(context.Background(), "k", func(ctx context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("lock should be released after an error, keys: %v", mr.Keys())
	}
}
