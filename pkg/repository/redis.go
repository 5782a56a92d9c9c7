package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/chefbazaar/pkg/config"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const lockPrefix = "lock:"

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRepository provides short-lived mutual exclusion keyed by string.
type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// TryLock takes key for ttl if nobody holds it. ok is false when the lock is
// held elsewhere. The returned unlock releases only our own hold.
func (r *RedisRepository) TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error) {
	if ttl <= 0 {
		ttl = r.config.LockTTL
	}
	token := uuid.NewString()
	fullKey := lockPrefix + key

	ok, err = r.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{fullKey}, token).Err()
	}
	return unlock, true, nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
