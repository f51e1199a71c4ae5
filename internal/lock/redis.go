package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// unlockScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by someone else is left alone.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// Redis is a Locker shared by every process talking to the same redis server.
type Redis struct {
	client        *redis.Client
	expiration    time.Duration
	retryInterval time.Duration
	maxRetries    int
}

// RedisOption configures a Redis locker.
type RedisOption func(*Redis)

// WithExpiration sets how long a lock lives if its holder never releases it.
func WithExpiration(d time.Duration) RedisOption {
	return func(r *Redis) { r.expiration = d }
}

// WithRetry sets the polling interval and attempt count for Acquire.
func WithRetry(interval time.Duration, maxRetries int) RedisOption {
	return func(r *Redis) {
		r.retryInterval = interval
		r.maxRetries = maxRetries
	}
}

// NewRedis creates a redis-backed locker.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:        client,
		expiration:    30 * time.Second,
		retryInterval: 50 * time.Millisecond,
		maxRetries:    100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire implements Locker using SET NX with a random token.
func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()

	for i := 0; i < r.maxRetries; i++ {
		ok, err := r.client.SetNX(ctx, key, token, r.expiration).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// The caller's ctx may already be cancelled; release regardless.
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := r.client.Eval(ctx, unlockScript, []string{key}, token).Err(); err != nil {
					slog.Error("Failed to release lock", "key", key, "error", err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retryInterval):
		}
	}
	return nil, ErrLockFailed
}
