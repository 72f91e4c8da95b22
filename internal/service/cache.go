package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 30 * time.Minute

// getCached decodes a JSON value from Redis. ok is false on a cache miss.
func getCached(ctx context.Context, rdb *redis.Client, key string, dst interface{}) (bool, error) {
	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func setCached(ctx context.Context, rdb *redis.Client, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, cacheTTL).Err()
}
