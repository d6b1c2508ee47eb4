package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token, so a
// holder whose lease expired cannot free a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb  *redis.Client
	wait time.Duration
	ttl  time.Duration
	log  *logger.Logger
}

func NewRedisLocker(rdb *redis.Client, wait, ttl time.Duration, log *logger.Logger) *RedisLocker {
	return &RedisLocker{
		rdb:  rdb,
		wait: wait,
		ttl:  ttl,
		log:  log,
	}
}

func (r *RedisLocker) Acquire(ctx context.Context, resourceID string) (Release, error) {
	waitCtx, cancel := waitContext(ctx, r.wait)
	defer cancel()

	key := "reservation_lock:" + resourceID
	token := uuid.NewString()
	delay := minPollInterval

	for {
		ok, err := r.rdb.SetNX(waitCtx, key, token, r.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire redis lock: %w", err)
		}
		if ok {
			return r.release(key, token), nil
		}

		select {
		case <-time.After(delay):
		case <-waitCtx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: resource %s", reservationserrors.ErrLockTimeout, resourceID)
		}
		if delay *= 2; delay > maxPollInterval {
			delay = maxPollInterval
		}
	}
}

func (r *RedisLocker) release(key, token string) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.wait)
			defer cancel()
			if err := releaseScript.Run(ctx, r.rdb, []string{key}, token).Err(); err != nil && err != redis.Nil {
				r.log.Error("Failed to release redis lock", "key", key, "error", err)
			}
		})
	}
}
