package cache

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/internal/config"
)

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisClient(t *testing.T) {
	addr := os.Getenv("COURSEMARKET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("COURSEMARKET_TEST_REDIS_ADDR not set")
	}

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}

func TestNewRedisClientUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	_, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
