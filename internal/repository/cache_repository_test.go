package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "proposal:", nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "p1", map[string]int{"a": 1}, time.Minute))
	var out map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "p1", &out), ErrCacheMiss)
	assert.NoError(t, repo.Delete(ctx, "p1"))
}

func TestCacheRepositoryWrapsTransportErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	repo := NewCacheRepository(client, "proposal:", nil)

	var out map[string]int
	err := repo.Get(context.Background(), "p1", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "proposal:p1")
}
