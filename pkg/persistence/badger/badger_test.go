package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBadgerStore_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	bs, err := NewBadgerStore(tmpDir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	v, err := bs.LoadAutoLogin(ctx)
	require.NoError(t, err)
	assert.False(t, v)

	require.NoError(t, bs.SaveAutoLogin(ctx, true))
	v, err = bs.LoadAutoLogin(ctx)
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, bs.HealthCheck(ctx))
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	bs, err := NewBadgerStore(tmpDir, logger)
	require.NoError(t, err)
	require.NoError(t, bs.SaveAutoLogin(ctx, true))
	require.NoError(t, bs.Close())

	reopened, err := NewBadgerStore(tmpDir, logger)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	v, err := reopened.LoadAutoLogin(ctx)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestBadgerStore_Closed(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	bs, err := NewBadgerStore(tmpDir, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, bs.Close())
	require.NoError(t, bs.Close()) // idempotent

	assert.Error(t, bs.SaveAutoLogin(ctx, true))
	_, err = bs.LoadAutoLogin(ctx)
	assert.Error(t, err)
	assert.Error(t, bs.HealthCheck(ctx))
}
