package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "accolade:"

// unlockScript deletes the lock only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCache handles read caching and the ingestion run lock
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetJSON decodes the value at key into dst. found is false on a miss.
func (rc *RedisCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := rc.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as JSON under key with a TTL.
func (rc *RedisCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := rc.client.Set(ctx, KeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix and returns how many
// were deleted.
func (rc *RedisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, KeyPrefix+prefix+"*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("cache scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			n, err := rc.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("cache delete %s: %w", prefix, err)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// TryLock sets key if absent. The returned token must be passed to Unlock.
func (rc *RedisCache) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := rc.client.SetNX(ctx, KeyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	return token, ok, nil
}

// Unlock releases key if it is still held with token.
func (rc *RedisCache) Unlock(ctx context.Context, key, token string) error {
	if err := unlockScript.Run(ctx, rc.client, []string{KeyPrefix + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("releasing lock %s: %w", key, err)
	}
	return nil
}
