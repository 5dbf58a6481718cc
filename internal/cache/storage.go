package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage implements fiber.Storage on Redis so rate limits are shared
// between instances. Keys are namespaced by prefix.
type Storage struct {
	db        redis.UniversalClient
	prefix    string
	scanBatch int64
}

func NewStorage(client redis.UniversalClient, prefix string) *Storage {
	return &Storage{db: client, prefix: prefix, scanBatch: 1000}
}

// Get returns nil for empty keys and missing values.
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.db.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores the value. A zero exp means no expiration.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.db.Set(context.Background(), s.prefix+key, val, exp).Err()
}

func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.db.Del(context.Background(), s.prefix+key).Err()
}

// Reset removes only the keys under the storage prefix.
func (s *Storage) Reset() error {
	ctx := context.Background()
	var cursor uint64
	for {
		keys, next, err := s.db.Scan(ctx, cursor, s.prefix+"*", s.scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.db.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close is a no-op; the client is owned by the caller.
func (s *Storage) Close() error {
	return nil
}
