package repository

import "time"

// sectorRow is the GORM row for the sectors table (spec.md section 6).
type sectorRow struct {
	ID              int     `gorm:"primaryKey"`
	SprinklerDebit  float64 `gorm:"column:sprinkler_debit"`
	PercolationRate float64 `gorm:"column:percolation_rate"`
	MaxDurationSecs int64   `gorm:"column:max_duration_seconds"`
	WeeklyTarget    float64 `gorm:"column:weekly_target"`
	Progress        float64 `gorm:"column:progress"`
}

func (sectorRow) TableName() string { return "sectors" }

// autoScheduleRow is the GORM row for the auto_schedules table.
type autoScheduleRow struct {
	DayOfWeek        int   `gorm:"column:day_of_week;primaryKey"`
	SectorID         int   `gorm:"column:sector_id;primaryKey"`
	StartTimeSeconds int64 `gorm:"column:start_time_seconds_from_midnight;primaryKey"`
	DurationSeconds  int64 `gorm:"column:duration_seconds"`
}

func (autoScheduleRow) TableName() string { return "auto_schedules" }

// wateringEventRow is the GORM row for the watering_events table.
type wateringEventRow struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	CycleID         *int64    `gorm:"column:cycle_id"`
	SectorID        int       `gorm:"column:sector_id"`
	StartTimeUTC    time.Time `gorm:"column:start_time_utc"`
	DurationMinutes float64   `gorm:"column:duration_minutes"`
	WaterAppliedCM  float64   `gorm:"column:water_applied_cm"`
	Mode            string    `gorm:"column:mode"`
}

func (wateringEventRow) TableName() string { return "watering_events" }

// dailyWeatherRow is the GORM row backing GetDailyET / GetLastDayRain.
// Both readings share one row per day, grounded on the original's
// db layer keeping ET/rain alongside each other per day (nic/src/db).
type dailyWeatherRow struct {
	DayStartUnix int64    `gorm:"column:day_start_unix;primaryKey"`
	ETCm         *float64 `gorm:"column:et_cm"`
	RainCm       *float64 `gorm:"column:rain_cm"`
}

func (dailyWeatherRow) TableName() string { return "daily_weather" }
