package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

func setupRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store, _ := setupRedisStore(t, 0)

	prefs, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prefs.Positions)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := setupRedisStore(t, 0)
	ctx := context.Background()

	prefs := NewPreferences()
	prefs.Positions["terminal"] = types.Bounds{X: 10, Y: 20, W: 720, H: 480}
	require.NoError(t, store.Save(ctx, prefs))
	assert.True(t, mr.Exists(DefaultRedisKey))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs.Positions, loaded.Positions)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := setupRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewPreferences()))
	assert.Equal(t, time.Hour, mr.TTL(DefaultRedisKey))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists(DefaultRedisKey))
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, mr := setupRedisStore(t, 0)
	require.NoError(t, mr.Set(DefaultRedisKey, "{not json"))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewRedisStore(ctx, "redis://"+addr, "", 0)
	assert.Error(t, err)

	_, err = NewRedisStore(ctx, "not a url", "", 0)
	assert.Error(t, err)
}

func TestManagerWithRedisStore(t *testing.T) {
	store, _ := setupRedisStore(t, 0)
	ctx := context.Background()

	seed := NewPreferences()
	seed.Positions["notes"] = types.Bounds{X: 5, Y: 5, W: 640, H: 520}
	require.NoError(t, store.Save(ctx, seed))

	m := NewManager(store, nil, time.Minute, nil)
	require.NoError(t, m.Load(ctx))

	saved, ok := m.SavedPosition("notes")
	require.True(t, ok)
	assert.Equal(t, 640, saved.W)
}
