// Package weather is a Redis-backed cache for daily ET/rain readings
// and the last-value GenWeather ingest payload, grounded on the
// teacher's weather cache: explicit per-key TTLs and a fail-fast
// Ping-on-connect, with plain string GET/SET per key rather than the
// teacher's HGETALL/HSET hash-per-key layout, since each cached value
// here is a single scalar reading, not a multi-field record.
package weather

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	etKeyPrefix      = "irrigo:et:"
	rainKeyPrefix    = "irrigo:rain:"
	genWeatherKey    = "irrigo:genweather:last"
	dailyReadingTTL  = 48 * time.Hour
	genWeatherKeyTTL = 24 * time.Hour
)

// Cache wraps a Redis client scoped to the irrigation controller's
// weather signals.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// New connects to Redis and verifies the connection with Ping,
// matching the teacher's fail-fast construction.
func New(addr, password string, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis for weather cache", zap.String("address", addr))
	return &Cache{client: client, logger: logger}, nil
}

// NewWithClient wraps an already-constructed client, used by tests
// against a miniredis instance.
func NewWithClient(client *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Client exposes the underlying Redis client for health checks.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// GetDailyET reads the cached evapotranspiration reading for the day
// starting at dayStartUnix. A missing key is not an error — the
// dispatcher treats it as zero (spec.md section 4.6 step 1).
func (c *Cache) GetDailyET(ctx context.Context, dayStartUnix int64) (float64, bool, error) {
	return c.getFloat(ctx, etKeyPrefix+strconv.FormatInt(dayStartUnix, 10))
}

// SetDailyET caches today's ET reading, overwriting any prior value.
func (c *Cache) SetDailyET(ctx context.Context, dayStartUnix int64, valueCm float64) error {
	return c.setFloat(ctx, etKeyPrefix+strconv.FormatInt(dayStartUnix, 10), valueCm)
}

// GetLastDayRain reads the cached rainfall reading for the given day.
func (c *Cache) GetLastDayRain(ctx context.Context, dayStartUnix int64) (float64, bool, error) {
	return c.getFloat(ctx, rainKeyPrefix+strconv.FormatInt(dayStartUnix, 10))
}

// SetLastDayRain caches today's rain reading.
func (c *Cache) SetLastDayRain(ctx context.Context, dayStartUnix int64, valueCm float64) error {
	return c.setFloat(ctx, rainKeyPrefix+strconv.FormatInt(dayStartUnix, 10), valueCm)
}

// SetLastGenWeather overwrites the last-known GenWeather ingest
// payload (spec.md section 9: "losing an old GenWeather string is
// preferable to blocking producers" — here that just means the newest
// write always wins, no history kept).
func (c *Cache) SetLastGenWeather(ctx context.Context, payload string) error {
	if err := c.client.Set(ctx, genWeatherKey, payload, genWeatherKeyTTL).Err(); err != nil {
		return fmt.Errorf("failed to set last genweather payload: %w", err)
	}
	return nil
}

// GetLastGenWeather returns the most recently ingested GenWeather
// payload, if any.
func (c *Cache) GetLastGenWeather(ctx context.Context) (string, bool, error) {
	val, err := c.client.Get(ctx, genWeatherKey).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get last genweather payload: %w", err)
	}
	return val, true, nil
}

func (c *Cache) getFloat(ctx context.Context, key string) (float64, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse cached value for %s: %w", key, err)
	}
	return f, true, nil
}

func (c *Cache) setFloat(ctx context.Context, key string, value float64) error {
	if err := c.client.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64), dailyReadingTTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping checks the Redis connection is alive, used by the health
// endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
