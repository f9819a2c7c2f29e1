package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/waterwise/irrigo/internal/watering/model"
)

// GormRepository implements Repository against any GORM dialect — the
// controller opens it with the mysql driver in production and the
// sqlite driver in tests, mirroring weatherService's dual-driver
// go.mod.
type GormRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New wraps an already-connected *gorm.DB.
func New(db *gorm.DB, logger *zap.Logger) *GormRepository {
	return &GormRepository{db: db, logger: logger}
}

func (r *GormRepository) LoadSectors(ctx context.Context) ([]model.Sector, error) {
	var rows []sectorRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load sectors: %w", err)
	}
	out := make([]model.Sector, len(rows))
	for i, row := range rows {
		out[i] = model.Sector{
			ID:              row.ID,
			SprinklerDebit:  row.SprinklerDebit,
			PercolationRate: row.PercolationRate,
			MaxDuration:     row.MaxDurationSecs,
			WeeklyTarget:    row.WeeklyTarget,
			Progress:        row.Progress,
		}
	}
	return out, nil
}

func (r *GormRepository) LoadAutoSchedule(ctx context.Context) (model.Schedule, error) {
	var rows []autoScheduleRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load auto schedule: %w", err)
	}
	out := make(model.Schedule, len(rows))
	for i, row := range rows {
		out[i] = model.ScheduleEntry{
			Weekday:             row.DayOfWeek,
			SectorID:            row.SectorID,
			SecondsFromMidnight: row.StartTimeSeconds,
			DurationSeconds:     row.DurationSeconds,
		}
	}
	return out, nil
}

func (r *GormRepository) LogWateringEvent(ctx context.Context, event WateringEvent) error {
	row := wateringEventRow{
		CycleID:         &event.CycleID,
		SectorID:        event.SectorID,
		StartTimeUTC:    event.StartTimeUTC,
		DurationMinutes: event.DurationMinutes,
		WaterAppliedCM:  event.WaterAppliedCM,
		Mode:            event.Mode,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if r.logger != nil {
			r.logger.Error("failed to log watering event", zap.Int("sector_id", event.SectorID), zap.Error(err))
		}
		return fmt.Errorf("log watering event: %w", err)
	}
	return nil
}

func (r *GormRepository) GetDailyET(ctx context.Context, dayStartUnix int64) (float64, bool, error) {
	var row dailyWeatherRow
	err := r.db.WithContext(ctx).Where("day_start_unix = ?", dayStartUnix).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get daily et: %w", err)
	}
	if row.ETCm == nil {
		return 0, false, nil
	}
	return *row.ETCm, true, nil
}

func (r *GormRepository) GetLastDayRain(ctx context.Context, dayStartUnix int64) (float64, bool, error) {
	var row dailyWeatherRow
	err := r.db.WithContext(ctx).Where("day_start_unix = ?", dayStartUnix).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get last day rain: %w", err)
	}
	if row.RainCm == nil {
		return 0, false, nil
	}
	return *row.RainCm, true, nil
}

func (r *GormRepository) ListWateringEvents(ctx context.Context, limit int) ([]WateringEvent, error) {
	var rows []wateringEventRow
	q := r.db.WithContext(ctx).Order("start_time_utc DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list watering events: %w", err)
	}
	out := make([]WateringEvent, len(rows))
	for i, row := range rows {
		var cycleID int64
		if row.CycleID != nil {
			cycleID = *row.CycleID
		}
		out[i] = WateringEvent{
			CycleID:         cycleID,
			SectorID:        row.SectorID,
			StartTimeUTC:    row.StartTimeUTC,
			DurationMinutes: row.DurationMinutes,
			WaterAppliedCM:  row.WaterAppliedCM,
			Mode:            row.Mode,
		}
	}
	return out, nil
}
