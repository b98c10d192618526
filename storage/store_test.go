package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"redis":  NewRedis(rdb),
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "key", []byte("value"), 0))

			got, err := store.Get(ctx, "key")
			require.NoError(t, err)
			assert.Equal(t, []byte("value"), got)

			require.NoError(t, store.Set(ctx, "key", []byte("newer"), 0))
			got, err = store.Get(ctx, "key")
			require.NoError(t, err)
			assert.Equal(t, []byte("newer"), got, "last write wins")

			require.NoError(t, store.Delete(ctx, "key"))
			_, err = store.Get(ctx, "key")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_JSONHelpers(t *testing.T) {
	type settings struct {
		Theme string `json:"theme"`
		Size  int    `json:"size"`
	}

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, SetJSON(ctx, store, "settings", settings{Theme: "dark", Size: 3}, time.Hour))

			var got settings
			require.NoError(t, GetJSON(ctx, store, "settings", &got))
			assert.Equal(t, settings{Theme: "dark", Size: 3}, got)

			require.NoError(t, store.Set(ctx, "broken", []byte("{"), 0))
			assert.Error(t, GetJSON(ctx, store, "broken", &got))
		})
	}
}

func TestMemory_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("y"), 0))

	_, err := m.Get(ctx, "short")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	_, err = m.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Get(ctx, "forever")
	assert.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestRedis_TTLAndPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedis(rdb, WithRedisPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", []byte("abc"), time.Minute))
	assert.True(t, mr.Exists("test:token"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)
}
