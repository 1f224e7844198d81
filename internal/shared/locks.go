package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy indicates the advisory lock could not be acquired in time.
var ErrLockBusy = errors.New("shared: lock busy")

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another caller is never released on their
// behalf. The compare and the delete must be one atomic step.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// GrantLockKey builds the redis key serializing grant replacement for a
// (user, hotel) pair.
func GrantLockKey(userID, hotelID uuid.UUID) string {
	return fmt.Sprintf("grants:%s:%s:lock", hotelID, userID)
}

// RedisLocker implements a best-effort advisory lock over redis SET NX.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker constructs a locker with sane defaults for short critical
// sections.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, ttl: 10 * time.Second, wait: 5 * time.Second}
}

// WithLock runs fn while holding the key. The lock carries a per-acquisition
// token so an expired lock is never released on behalf of another holder.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("shared: acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}()
	return fn(ctx)
}
