// Package cache connects to Redis, which backs the shared OAuth state store
// and the rate limiter when REDIS_URL is configured.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrParseURL          = errors.New("failed to parse redis connection string")
	ErrNotReady          = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed = errors.New("redis healthcheck failed")
)

type Options struct {
	URL            string
	RetryAttempts  int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

func DefaultOptions(url string) Options {
	return Options{
		URL:            url,
		RetryAttempts:  3,
		RetryInterval:  2 * time.Second,
		ConnectTimeout: 15 * time.Second,
	}
}

// Connect pings Redis until it answers or the attempts run out.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, errors.Join(ErrParseURL, err)
	}

	for range opts.RetryAttempts {
		client := redis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(opts.RetryInterval):
		}
	}

	return nil, ErrNotReady
}

func Ping(ctx context.Context, client redis.UniversalClient) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
