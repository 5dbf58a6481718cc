package oauthstate

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "oauth_state:"

// RedisStore shares states across instances. Expired keys are removed by
// Redis itself.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, state string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, redisKeyPrefix+state, strconv.FormatInt(expiresAt.UnixNano(), 10), ttl).Err()
}

// Take uses GETDEL so concurrent callbacks cannot both consume a state.
func (s *RedisStore) Take(ctx context.Context, state string) (time.Time, bool, error) {
	val, err := s.client.GetDel(ctx, redisKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.Unix(0, nanos), true, nil
}

func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
