package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/waxio/cloudwallet-go/pkg/persistence"
)

const (
	keyPrefixPreference = "wallet:pref:"
)

// RedisStore is a Redis-backed preference store for deployments where
// several wallet-holding processes share one user's preferences.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys, for
	// multi-tenant setups. Prepended to the default "wallet:pref:" prefix.
	KeyPrefix string
}

// NewRedisStore creates a new Redis-backed preference store and verifies
// connectivity.
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	logger.Sugar().Infow("Redis preference store initialized", "address", cfg.Address, "db", cfg.DB)

	return &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (r *RedisStore) key(name string) string {
	return r.keyPrefix + keyPrefixPreference + name
}

// SaveAutoLogin records the auto-login preference.
func (r *RedisStore) SaveAutoLogin(ctx context.Context, enabled bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("preference store is closed")
	}

	err := r.client.Set(ctx, r.key(persistence.KeyAutoLogin), persistence.EncodeBool(enabled), 0).Err()
	if err != nil {
		return fmt.Errorf("failed to save auto-login preference: %w", err)
	}
	return nil
}

// LoadAutoLogin returns the persisted auto-login preference, false when unset.
func (r *RedisStore) LoadAutoLogin(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, fmt.Errorf("preference store is closed")
	}

	raw, err := r.client.Get(ctx, r.key(persistence.KeyAutoLogin)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load auto-login preference: %w", err)
	}
	return persistence.DecodeBool(raw)
}

// Close shuts down the store.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// HealthCheck verifies the store is operational.
func (r *RedisStore) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("preference store is closed")
	}
	return r.client.Ping(ctx).Err()
}

var _ persistence.Store = (*RedisStore)(nil)
