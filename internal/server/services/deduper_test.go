package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisDeduper(t *testing.T) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDeduper(client, "syncbox:idem:", time.Minute), m
}

func TestRedisDeduper_RememberAndLookup(t *testing.T) {
	d, m := newRedisDeduper(t)
	ctx := context.Background()

	_, ok, err := d.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Remember(ctx, "k1", 42))
	require.NoError(t, d.Remember(ctx, "k1", 43))

	id, ok, err := d.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	assert.True(t, m.Exists("syncbox:idem:k1"))
	assert.Equal(t, time.Minute, m.TTL("syncbox:idem:k1"))
}

func TestRedisDeduper_Expires(t *testing.T) {
	d, m := newRedisDeduper(t)
	ctx := context.Background()

	require.NoError(t, d.Remember(ctx, "k1", 1))
	m.FastForward(2 * time.Minute)

	_, ok, err := d.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDeduper_Errors(t *testing.T) {
	d, m := newRedisDeduper(t)
	ctx := context.Background()

	require.NoError(t, m.Set("syncbox:idem:bad", "not-a-number"))
	_, _, err := d.Lookup(ctx, "bad")
	assert.Error(t, err)

	m.Close()
	_, _, err = d.Lookup(ctx, "k1")
	assert.Error(t, err)
	assert.Error(t, d.Remember(ctx, "k1", 1))
}

func TestNopDeduper(t *testing.T) {
	var d NopDeduper
	require.NoError(t, d.Remember(context.Background(), "k", 1))
	_, ok, err := d.Lookup(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
