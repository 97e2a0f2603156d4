package cache

import (
	"testing"

	"starmatch/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	t.Run("empty address", func(t *testing.T) {
		client, err := NewRedisClient(t.Context(), config.RedisConfig{})
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewRedisClient(t.Context(), config.RedisConfig{Address: mr.Addr()})
		require.NoError(t, err)
		defer client.Close()
		require.NoError(t, client.Set(t.Context(), "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("unreachable server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		client, err := NewRedisClient(t.Context(), config.RedisConfig{Address: addr})
		assert.Error(t, err)
		assert.Nil(t, client)
	})
}
