package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fiber.Storage = (*Storage)(nil)

func TestConnect_BadURL(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), DefaultOptions("not a url"))
	assert.ErrorIs(t, err, ErrParseURL)
}

func TestStorage_RoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	opts := DefaultOptions(url)
	opts.RetryAttempts = 1
	client, err := Connect(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, Ping(context.Background(), client))

	s := NewStorage(client, "test_limiter:")
	t.Cleanup(func() { _ = s.Reset() })

	got, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set("k", []byte("v"), time.Minute))
	got, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete("k"))
	got, err = s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Reset())
	got, err = s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, got)
}
