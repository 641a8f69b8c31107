// Package lock serializes work on the same key, one (group, day) at a time.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/syncx"
)

type Serializer interface {
	// Serialize runs fn while no other fn with the same key is running.
	Serialize(ctx context.Context, key string, fn func() error) error
}

type localSerializer struct {
	calls syncx.LockedCalls
}

// NewLocal serializes within the current process.
func NewLocal() Serializer {
	return &localSerializer{calls: syncx.NewLockedCalls()}
}

func (s *localSerializer) Serialize(_ context.Context, key string, fn func() error) error {
	_, err := s.calls.Do(key, func() (any, error) {
		return nil, fn()
	})
	return err
}

const (
	redisKeyPrefix = "ledger:lock:"
	retryInterval  = 50 * time.Millisecond
)

type redisSerializer struct {
	store  *redis.Redis
	expire int
}

// NewRedis serializes across processes sharing store. A held lock expires
// after expire so a crashed holder cannot block a day forever.
func NewRedis(store *redis.Redis, expire time.Duration) Serializer {
	seconds := int(expire / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	return &redisSerializer{
		store:  store,
		expire: seconds,
	}
}

func (s *redisSerializer) Serialize(ctx context.Context, key string, fn func() error) error {
	lock := redis.NewRedisLock(s.store, redisKeyPrefix+key)
	lock.SetExpire(s.expire)

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := lock.AcquireCtx(ctx)
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}

	defer func() {
		if _, err := lock.ReleaseCtx(context.Background()); err != nil {
			logx.WithContext(ctx).Errorf("release lock %s: %v", key, err)
		}
	}()

	return fn()
}
