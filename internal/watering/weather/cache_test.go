package weather

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, zap.NewNop())
}

func TestGetDailyETMissReturnsZeroNoError(t *testing.T) {
	c := newTestCache(t)
	v, ok, err := c.GetDailyET(context.Background(), 86400)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestSetAndGetDailyET(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.SetDailyET(context.Background(), 86400, 0.75))

	v, ok, err := c.GetDailyET(context.Background(), 86400)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.75, v)
}

func TestSetAndGetLastDayRain(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.SetLastDayRain(context.Background(), 86400, 0.3))

	v, ok, err := c.GetLastDayRain(context.Background(), 86400)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.3, v)
}

func TestGenWeatherRoundTrip(t *testing.T) {
	c := newTestCache(t)
	_, ok, err := c.GetLastGenWeather(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLastGenWeather(context.Background(), `{"rain":true}`))
	val, ok, err := c.GetLastGenWeather(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"rain":true}`, val)
}

func TestPing(t *testing.T) {
	c := newTestCache(t)
	assert.NoError(t, c.Ping(context.Background()))
}
