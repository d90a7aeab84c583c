package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes work on a key across goroutines (LocalLocker) or
// processes (RedisLocker).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker is an in-process keyed mutex
type LocalLocker struct {
	mu *utils.KeyedMutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{mu: utils.NewKeyedMutex()}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	acquired := make(chan func(), 1)
	go func() {
		acquired <- l.mu.Lock(key)
	}()

	select {
	case unlock := <-acquired:
		return unlock, nil
	case <-ctx.Done():
		// Release the lock as soon as the waiter gets it
		go func() {
			unlock := <-acquired
			unlock()
		}()
		return nil, ctx.Err()
	}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockNotAcquired is returned when the context ends before the lock is won
var ErrLockNotAcquired = errors.New("lock not acquired")

// RedisLocker is a single-instance Redis lock (SET NX PX with an owner token).
// The lease is not renewed: work holding the lock longer than ttl is no
// longer serialized, and the release reports it.
type RedisLocker struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client:     client,
		prefix:     "engine:lock:",
		ttl:        ttl,
		retryDelay: 25 * time.Millisecond,
		logger:     logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			acquiredAt := time.Now()
			return func() {
				// Use a fresh context; the caller's may already be cancelled
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				l.release(releaseCtx, lockKey, token, time.Since(acquiredAt))
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(ctx context.Context, lockKey, token string, held time.Duration) {
	deleted, err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Int64()
	if err != nil {
		l.logger.WarnContext(ctx, "Lock release failed, lease will expire on its own",
			"key", lockKey, "held", held, "ttl", l.ttl, "error", err)
		return
	}
	if deleted == 0 {
		l.logger.WarnContext(ctx, "Lock lease expired before release",
			"key", lockKey, "held", held, "ttl", l.ttl)
	}
}
