package geocache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smkmitra/pkl-location-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "companyGeocodeCache_v1", ttl), mr
}

func TestRedisStore_LoadMissingKey(t *testing.T) {
	store, _ := newRedisStore(t, 0)
	blob, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestRedisStore_SaveThenLoad(t *testing.T) {
	store, _ := newRedisStore(t, 0)

	require.NoError(t, store.Save(context.Background(), []byte(`{"Jl. A":{"lat":-6.9,"lng":107.6}}`)))

	blob, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Jl. A":{"lat":-6.9,"lng":107.6}}`, string(blob))
}

func TestRedisStore_TTLRefreshedOnSave(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)

	require.NoError(t, store.Save(context.Background(), []byte(`{}`)))
	assert.Equal(t, time.Hour, mr.TTL("companyGeocodeCache_v1"))

	// Saving again resets the session TTL.
	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.Save(context.Background(), []byte(`{"a":{"lat":1,"lng":2}}`)))
	assert.Equal(t, time.Hour, mr.TTL("companyGeocodeCache_v1"))
}

func TestRedisStore_ExpiredEntryLoadsEmpty(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)

	require.NoError(t, store.Save(context.Background(), []byte(`{"a":{"lat":1,"lng":2}}`)))
	mr.FastForward(2 * time.Hour)

	blob, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestCache_OverRedisStore(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	c := New(context.Background(), store, discardLogger())

	c.Put(context.Background(), "Jl. A", domain.Coordinate{Lat: -6.9, Lng: 107.6})

	reopened := New(context.Background(), store, discardLogger())
	got, ok := reopened.Get("Jl. A")
	require.True(t, ok)
	assert.Equal(t, domain.Coordinate{Lat: -6.9, Lng: 107.6}, got)
}
