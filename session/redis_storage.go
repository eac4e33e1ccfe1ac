package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps the session in redis, for deployments where several
// agent processes share one operator login.
type RedisStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStorage returns redis-backed storage. A zero ttl means no expiry.
func NewRedisStorage(client *redis.Client, key string, ttl time.Duration) *RedisStorage {
	if key == "" {
		key = "voltswap:session"
	}
	return &RedisStorage{client: client, key: key, ttl: ttl}
}

// Load reads the persisted session. A missing key yields nil data.
func (r *RedisStorage) Load(ctx context.Context) (*Data, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: redis get: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("session: decode redis payload: %w", err)
	}
	return &data, nil
}

// Save writes the session.
func (r *RedisStorage) Save(ctx context.Context, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, r.ttl).Err()
}

// Clear removes the session key.
func (r *RedisStorage) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
