package weather

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/waterwise/irrigo/internal/watering/weather/etsource"
)

// DBSource is the persisted daily-weather row, checked before the
// cache and before the scraped fallback.
type DBSource interface {
	GetDailyET(ctx context.Context, dayStartUnix int64) (float64, bool, error)
	GetLastDayRain(ctx context.Context, dayStartUnix int64) (float64, bool, error)
}

// Fallback fetches a fresh reading when neither the database nor the
// cache has one for the day, mirroring crawler/naver.go's
// scrape-on-cache-miss pattern.
type Fallback interface {
	Fetch(ctx context.Context, region string) (etsource.Reading, error)
}

// CompositeSource resolves a day's ET/rain reading through three tiers:
// the persisted daily_weather row, the Redis cache, and finally the
// HTML-scraped fallback. Only a fallback reading is written back, into
// the Redis cache; a database or cache hit populates no other tier
// (spec.md section 4.6 step 1 takes "no data
// for the day" to mean zero only once all three have missed).
type CompositeSource struct {
	db       DBSource
	cache    *Cache
	fallback Fallback
	region   string
	logger   *zap.Logger
}

// NewCompositeSource builds a CompositeSource.
func NewCompositeSource(db DBSource, cache *Cache, fallback Fallback, region string, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{db: db, cache: cache, fallback: fallback, region: region, logger: logger}
}

// GetDailyET resolves the day's evapotranspiration reading.
func (s *CompositeSource) GetDailyET(ctx context.Context, dayStartUnix int64) (float64, bool, error) {
	if v, ok, err := s.db.GetDailyET(ctx, dayStartUnix); err == nil && ok {
		return v, true, nil
	}
	if v, ok, err := s.cache.GetDailyET(ctx, dayStartUnix); err == nil && ok {
		return v, true, nil
	}

	reading, err := s.fallback.Fetch(ctx, s.region)
	if err != nil {
		return 0, false, fmt.Errorf("weather: all sources missed for day %d, fallback failed: %w", dayStartUnix, err)
	}
	if err := s.cache.SetDailyET(ctx, dayStartUnix, reading.ETCm); err != nil {
		s.logger.Warn("failed to cache fallback ET reading", zap.Error(err))
	}
	s.logger.Info("used scraped fallback ET reading", zap.Int64("day_start_unix", dayStartUnix), zap.Float64("et_cm", reading.ETCm))
	return reading.ETCm, true, nil
}

// GetLastDayRain resolves the day's rainfall reading.
func (s *CompositeSource) GetLastDayRain(ctx context.Context, dayStartUnix int64) (float64, bool, error) {
	if v, ok, err := s.db.GetLastDayRain(ctx, dayStartUnix); err == nil && ok {
		return v, true, nil
	}
	if v, ok, err := s.cache.GetLastDayRain(ctx, dayStartUnix); err == nil && ok {
		return v, true, nil
	}

	reading, err := s.fallback.Fetch(ctx, s.region)
	if err != nil {
		return 0, false, fmt.Errorf("weather: all sources missed for day %d, fallback failed: %w", dayStartUnix, err)
	}
	if err := s.cache.SetLastDayRain(ctx, dayStartUnix, reading.RainCm); err != nil {
		s.logger.Warn("failed to cache fallback rain reading", zap.Error(err))
	}
	s.logger.Info("used scraped fallback rain reading", zap.Int64("day_start_unix", dayStartUnix), zap.Float64("rain_cm", reading.RainCm))
	return reading.RainCm, true, nil
}
