package prefs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/geohash-zones/pkg/active"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := OpenRedis(ctx, RedisConfig{Addr: mr.Addr(), Prefix: "geohash:prefs:"})
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, KeyShowZone)
	require.NoError(t, err)
	assert.False(t, ok)

	p := New(s, nil)
	require.NoError(t, p.SaveSettings(ctx, Settings{ShowGrid: true, ShowZone: true, Mode: active.Fixed, FixedPrecision: 3}))

	raw, err := mr.Get("geohash:prefs:" + KeyActiveTab)
	require.NoError(t, err)
	assert.Equal(t, `"fixed"`, raw)

	got := p.LoadSettings(ctx)
	assert.Equal(t, active.Fixed, got.Mode)
	assert.Equal(t, 3, got.FixedPrecision)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "")
	mr.Close()

	_, _, err := s.Get(context.Background(), KeyShowGrid)
	assert.Error(t, err)

	assert.Equal(t, DefaultSettings(), New(s, nil).LoadSettings(context.Background()))
}
