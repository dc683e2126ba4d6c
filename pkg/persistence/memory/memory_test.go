package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	// Unset reads back false without error.
	v, err := m.LoadAutoLogin(ctx)
	require.NoError(t, err)
	assert.False(t, v)

	require.NoError(t, m.SaveAutoLogin(ctx, true))
	v, err = m.LoadAutoLogin(ctx)
	require.NoError(t, err)
	assert.True(t, v)

	// Last write wins.
	require.NoError(t, m.SaveAutoLogin(ctx, false))
	v, err = m.LoadAutoLogin(ctx)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestMemoryStore_Close(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.HealthCheck(ctx))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // idempotent

	assert.Error(t, m.HealthCheck(ctx))
	assert.Error(t, m.SaveAutoLogin(ctx, true))
	_, err := m.LoadAutoLogin(ctx)
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(v bool) {
			defer wg.Done()
			_ = m.SaveAutoLogin(ctx, v)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_, _ = m.LoadAutoLogin(ctx)
		}()
	}
	wg.Wait()

	require.NoError(t, m.HealthCheck(ctx))
}
