package redis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test when no Redis server is reachable.
func requireRedis(t *testing.T) *RedisStore {
	t.Helper()

	cfg := &RedisConfig{
		Address:   getTestRedisAddress(),
		DB:        15, // dedicated test DB
		KeyPrefix: "test:",
	}

	rs, err := NewRedisStore(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}
	return rs
}

func TestNewRedisStore_ConfigErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewRedisStore(nil, logger)
	require.Error(t, err)

	_, err = NewRedisStore(&RedisConfig{}, logger)
	require.Error(t, err)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	rs := requireRedis(t)
	defer func() { _ = rs.Close() }()

	ctx := context.Background()

	require.NoError(t, rs.SaveAutoLogin(ctx, true))
	v, err := rs.LoadAutoLogin(ctx)
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, rs.SaveAutoLogin(ctx, false))
	v, err = rs.LoadAutoLogin(ctx)
	require.NoError(t, err)
	assert.False(t, v)

	require.NoError(t, rs.HealthCheck(ctx))
}

func TestRedisStore_Closed(t *testing.T) {
	rs := requireRedis(t)
	require.NoError(t, rs.Close())
	require.NoError(t, rs.Close()) // idempotent

	ctx := context.Background()
	assert.Error(t, rs.SaveAutoLogin(ctx, true))
	_, err := rs.LoadAutoLogin(ctx)
	assert.Error(t, err)
	assert.Error(t, rs.HealthCheck(ctx))
}
